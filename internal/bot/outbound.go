package bot

import (
	"context"
	"fmt"
	"io"

	"github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

// maxDownload is the Bot API's file download limit.
const maxDownload = 20 << 20

// Sender delivers replies to arbitrary users through the bot.
type Sender struct {
	bot tele.API
}

// NewSender returns a Sender over b.
func NewSender(b tele.API) *Sender {
	return &Sender{bot: b}
}

// SendTo sends rep to the private chat of userID.
func (s *Sender) SendTo(ctx context.Context, userID int64, rep chat.Reply) error {
	o := render(rep)
	return helpers.Do(ctx, "broadcast."+o.action, o.endpoint, func() error {
		_, err := s.bot.Send(tele.ChatID(userID), o.what, o.opts)
		return err
	})
}

// Files downloads uploaded files through the bot.
type Files struct {
	bot *tele.Bot
}

// NewFiles returns a Files over b.
func NewFiles(b *tele.Bot) *Files {
	return &Files{bot: b}
}

// Fetch downloads the file with fileID.
func (f *Files) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	var rc io.ReadCloser
	err := helpers.Do(ctx, "file.download", "getFile", func() error {
		var err error
		rc, err = f.bot.File(&tele.File{FileID: fileID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bot.fetch: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("bot.fetch: read: %w", err)
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("bot.fetch: file exceeds %d bytes", maxDownload)
	}
	return data, nil
}
