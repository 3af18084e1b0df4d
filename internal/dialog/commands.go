package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/format"
	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
)

// Command names as seen in events.
const (
	CmdStart     = "start"
	CmdLang      = "lang"
	CmdCancel    = "cancel"
	CmdAdmin     = "admin"
	CmdStats     = "stats"
	CmdBroadcast = "broadcast"
	CmdManage    = "manage"
	CmdAddMovie  = "addmovie"
)

// DeepLinkPrefix prefixes the /start payload that opens an entry.
const DeepLinkPrefix = "movie_"

// CommandSpec describes a slash command for registration with the transport.
type CommandSpec struct {
	Name        string
	Description string
	Operator    bool
	Aliases     []string
}

// Commands lists every command the router understands.
var Commands = []CommandSpec{
	{Name: CmdStart, Description: "Start the bot"},
	{Name: CmdLang, Description: "Change language"},
	{Name: CmdCancel, Description: "Cancel the current action"},
	{Name: CmdAdmin, Description: "Operator panel", Operator: true},
	{Name: CmdStats, Description: "Show statistics", Operator: true, Aliases: []string{"statistika"}},
	{Name: CmdBroadcast, Description: "Message all users", Operator: true, Aliases: []string{"xabar"}},
	{Name: CmdManage, Description: "Manage catalog entries", Operator: true},
	{Name: CmdAddMovie, Description: "Add a catalog entry", Operator: true},
}

var adminMenu = [][]string{
	{"/" + CmdAddMovie, "/" + CmdManage},
	{"/" + CmdStats, "/" + CmdBroadcast},
	{"/" + CmdCancel},
}

// manageChunk bounds the entries listed per /manage message.
const manageChunk = 20

func (r *Router) command(ctx context.Context, ev chat.Event, out chat.Responder) error {
	switch ev.Command {
	case CmdStart:
		if payload, ok := strings.CutPrefix(strings.TrimSpace(ev.Payload), DeepLinkPrefix); ok {
			return r.deepLink(ctx, ev, payload, out)
		}
		return r.start(ctx, ev, out)
	case CmdLang:
		return r.langMenu(ctx, out)
	case CmdCancel:
		return r.cancel(ctx, ev, out)
	}

	if err := r.requireOperator(ev, "dialog."+ev.Command); err != nil {
		return err
	}
	switch ev.Command {
	case CmdAdmin:
		return out.Reply(ctx, chat.Reply{Text: textAdminPanel, Menu: adminMenu})
	case CmdStats:
		return r.stats(ctx, out)
	case CmdBroadcast:
		return r.wizard.StartBroadcast(ctx, ev.UserID, out)
	case CmdManage:
		return r.manage(ctx, out)
	case CmdAddMovie:
		return r.wizard.StartAdd(ctx, ev.UserID, out)
	}
	return out.Reply(ctx, chat.Reply{Text: textUnknownCommand})
}

func (r *Router) start(ctx context.Context, ev chat.Event, out chat.Responder) error {
	if err := r.users.Register(ctx, ev.UserID); err != nil {
		return err
	}
	reply := chat.Reply{
		Text:    textWelcome,
		Buttons: chat.Rows([]chat.Button{chat.SearchButton(textSearchButton, "")}, 1),
	}
	if r.cfg.BannerURL != "" {
		withBanner := reply
		withBanner.Photo = r.cfg.BannerURL
		err := out.Reply(ctx, withBanner)
		if err == nil {
			return nil
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "dialog.banner_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return out.Reply(ctx, reply)
}

func (r *Router) deepLink(ctx context.Context, ev chat.Event, payload string, out chat.Responder) error {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return apperr.Validation("dialog.deep_link", textInvalidID)
	}
	if err := r.users.Register(ctx, ev.UserID); err != nil {
		return err
	}
	e, err := r.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	return out.Reply(ctx, detailReply(entryDetail(e)))
}

func (r *Router) langMenu(ctx context.Context, out chat.Responder) error {
	btns := make([]chat.Button, 0, len(languages))
	for _, l := range languages {
		btns = append(btns, chat.ChoiceButton(l.Label, ChoiceLang, l.Code))
	}
	return out.Reply(ctx, chat.Reply{Text: textChooseLanguage, Buttons: chat.Rows(btns, 1)})
}

func (r *Router) cancel(ctx context.Context, ev chat.Event, out chat.Responder) error {
	if !r.wizard.Cancel(ctx, ev.UserID) {
		return out.Reply(ctx, chat.Reply{Text: textNothingActive})
	}
	return out.Reply(ctx, chat.Reply{Text: textCancelled, RemoveMenu: true})
}

func (r *Router) stats(ctx context.Context, out chat.Responder) error {
	users, err := r.users.Count(ctx)
	if err != nil {
		return err
	}
	entries, err := r.catalog.Count(ctx)
	if err != nil {
		return err
	}
	return out.Reply(ctx, chat.Reply{Text: fmt.Sprintf(textStats, users, entries)})
}

func (r *Router) manage(ctx context.Context, out chat.Responder) error {
	list, err := r.catalog.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return out.Reply(ctx, chat.Reply{Text: textCatalogEmpty})
	}
	for start := 0; start < len(list); start += manageChunk {
		chunk := list[start:min(start+manageChunk, len(list))]
		var text string
		if start == 0 {
			text = fmt.Sprintf(textManageHeader, len(list))
		} else {
			text = fmt.Sprintf("%d-%d", start+1, start+len(chunk))
		}
		if err := out.Reply(ctx, chat.Reply{Text: text, Buttons: manageKeyboard(chunk)}); err != nil {
			return err
		}
	}
	return nil
}

func manageKeyboard(list []catalog.Summary) *chat.Keyboard {
	kb := &chat.Keyboard{}
	for _, s := range list {
		id := strconv.FormatInt(s.ID, 10)
		kb.Rows = append(kb.Rows, []chat.Button{
			chat.ChoiceButton(fmt.Sprintf("#%d %s", s.ID, format.Truncate(s.Title, 32)), ChoiceView, id),
			chat.ChoiceButton("✏️", ChoiceEdit, id),
			chat.ChoiceButton("🗑", ChoiceDelete, id),
		})
	}
	return kb
}
