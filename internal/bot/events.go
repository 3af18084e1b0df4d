// Package bot adapts telebot updates and replies to the chat protocol used
// by the dialogue router.
package bot

import (
	"strings"

	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	"github.com/m3rciful/kinobot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

// EventFrom converts an update into a chat event. Commands are resolved
// through reg so aliases arrive under their canonical name. ok is false
// for updates the router has no use for.
func EventFrom(c tele.Context, reg *tg.Registry) (chat.Event, bool) {
	ev := chat.Event{}
	if u := c.Sender(); u != nil {
		ev.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		ev.ChatID = ch.ID
	}

	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		if cb.Unique != "" {
			key, payload = cb.Unique, cb.Data
		}
		ev.Kind = chat.KindChoice
		ev.Choice = chat.Choice{Key: key, Value: payload}
		return ev, key != ""
	}
	if q := c.Query(); q != nil {
		ev.Kind = chat.KindInlineQuery
		ev.Query = q.Text
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		return ev, false
	}
	switch {
	case msg.Video != nil:
		ev.Kind = chat.KindVideo
		ev.File = chat.File{ID: msg.Video.FileID, Size: msg.Video.FileSize, MIMEType: msg.Video.MIME}
		return ev, true
	case msg.Photo != nil:
		ev.Kind = chat.KindPhoto
		ev.File = chat.File{ID: msg.Photo.FileID, Size: msg.Photo.FileSize}
		return ev, true
	case msg.Document != nil:
		ev.Kind = documentKind(msg.Document.MIME)
		ev.File = chat.File{ID: msg.Document.FileID, Size: msg.Document.FileSize, MIMEType: msg.Document.MIME}
		return ev, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ev, false
	}
	if name, ok := commandName(text, reg); ok {
		ev.Kind = chat.KindCommand
		ev.Command = name
		ev.Payload = strings.TrimSpace(msg.Payload)
		if ev.Payload == "" {
			ev.Payload = commandPayload(text)
		}
		return ev, true
	}
	ev.Kind = chat.KindText
	ev.Text = text
	return ev, true
}

// Files sent as documents still count as videos or posters when their type says so.
func documentKind(mime string) chat.EventKind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return chat.KindVideo
	case strings.HasPrefix(mime, "image/"):
		return chat.KindPhoto
	}
	return chat.KindDocument
}

func commandName(text string, reg *tg.Registry) (string, bool) {
	if reg == nil || !strings.HasPrefix(text, "/") {
		return "", false
	}
	first, _, _ := strings.Cut(text, " ")
	first, _, _ = strings.Cut(first, "@")
	key, _, ok := reg.LookupCommand(first)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(key, "/"), true
}

func commandPayload(text string) string {
	_, rest, _ := strings.Cut(text, " ")
	return strings.TrimSpace(rest)
}
