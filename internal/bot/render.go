package bot

import (
	"strings"

	"github.com/m3rciful/kinobot/core/telegram/keyboard"
	"github.com/m3rciful/kinobot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

// outgoing is a reply translated for telebot.
type outgoing struct {
	what     any
	action   string
	endpoint string
	opts     *tele.SendOptions
	// notice is shown in the chat header while media is sent.
	notice tele.ChatAction
}

func render(r chat.Reply) outgoing {
	out := outgoing{
		what:     r.Text,
		action:   "send.text",
		endpoint: "sendMessage",
		opts: &tele.SendOptions{
			ParseMode:   tele.ModeHTML,
			ReplyMarkup: markup(r),
		},
	}
	switch {
	case r.Photo != "":
		out.what = &tele.Photo{File: fileRef(r.Photo), Caption: r.Text}
		out.action, out.endpoint = "send.photo", "sendPhoto"
		out.notice = tele.UploadingPhoto
	case r.Video != "":
		out.what = &tele.Video{File: fileRef(r.Video), Caption: r.Text}
		out.action, out.endpoint = "send.video", "sendVideo"
		out.notice = tele.UploadingVideo
	}
	return out
}

// fileRef treats http(s) strings as URLs and anything else as a Telegram file id.
func fileRef(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.File{FileID: ref}
}

func markup(r chat.Reply) *tele.ReplyMarkup {
	switch {
	case r.Buttons != nil && len(r.Buttons.Rows) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(r.Buttons.Rows))
		for _, row := range r.Buttons.Rows {
			btns := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				btns = append(btns, inlineBtn(b))
			}
			rows = append(rows, btns)
		}
		return keyboard.Inline(rows...)
	case len(r.Menu) > 0:
		return keyboard.Reply(r.Menu...)
	case r.RemoveMenu:
		return keyboard.Remove()
	}
	return nil
}

func inlineBtn(b chat.Button) keyboard.InlineBtn {
	if b.Search {
		return keyboard.InlineBtn{Text: b.Text, Query: b.Query}
	}
	return keyboard.InlineBtn{Text: b.Text, Unique: b.Choice.Key, Data: b.Choice.Value}
}
