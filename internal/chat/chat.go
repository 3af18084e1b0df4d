// Package chat is the transport-neutral protocol between the Telegram
// adapter and the dialogue core: inbound events, outbound replies and the
// interfaces used to deliver them.
package chat

import (
	"context"
	"fmt"
	"strings"
)

// EventKind tags the shape of an inbound Event.
type EventKind int

const (
	KindCommand EventKind = iota + 1
	KindText
	KindChoice
	KindInlineQuery
	KindVideo
	KindPhoto
	KindDocument
)

var kindNames = map[EventKind]string{
	KindCommand:     "command",
	KindText:        "text",
	KindChoice:      "choice",
	KindInlineQuery: "inline_query",
	KindVideo:       "video",
	KindPhoto:       "photo",
	KindDocument:    "document",
}

func (k EventKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Choice is a decoded menu selection: which menu (Key) and what was picked.
type Choice struct {
	Key   string
	Value string
}

// File references an uploaded asset by the transport's file id.
type File struct {
	ID       string
	Size     int64
	MIMEType string
}

// Event is one inbound update. Only the fields matching Kind are set.
type Event struct {
	Kind   EventKind
	UserID int64
	ChatID int64

	// Command is the canonical command name without the slash; Payload is
	// the rest of the message ("movie_5" for a deep link).
	Command string
	Payload string

	Text   string
	Choice Choice
	Query  string
	File   File
}

// IsCommandText reports whether a text event looks like a slash command.
func (e Event) IsCommandText() bool {
	return e.Kind == KindText && strings.HasPrefix(strings.TrimSpace(e.Text), "/")
}

// Button is one inline keyboard button. A Search button switches the user
// to an inline query prefilled with Query; any other button sends Choice.
type Button struct {
	Text   string
	Choice Choice
	Search bool
	Query  string
}

// ChoiceButton builds a button that sends key/value back as a Choice event.
func ChoiceButton(text, key, value string) Button {
	return Button{Text: text, Choice: Choice{Key: key, Value: value}}
}

// SearchButton builds a button that opens an inline query with query.
func SearchButton(text, query string) Button {
	return Button{Text: text, Search: true, Query: query}
}

// Keyboard is an inline keyboard, row by row.
type Keyboard struct {
	Rows [][]Button
}

// Reply is one outbound message. Photo takes precedence over Video; Text is
// the caption when either is set. Text is HTML.
type Reply struct {
	Text  string
	Photo string
	Video string

	Buttons *Keyboard
	// Menu is a reply keyboard; RemoveMenu hides a previous one.
	Menu       [][]string
	RemoveMenu bool
}

// InlineResult is one card in an inline query answer.
type InlineResult struct {
	Title       string
	Description string
	ThumbURL    string
	// Text is posted to the chat when the card is picked.
	Text string
}

// Responder answers the update currently being handled.
type Responder interface {
	Reply(ctx context.Context, r Reply) error
	// Ack acknowledges a menu selection; text, if any, is shown as a toast.
	Ack(ctx context.Context, text string) error
	AnswerInline(ctx context.Context, results []InlineResult) error
}

// Sender delivers messages to arbitrary users outside of an update.
type Sender interface {
	SendTo(ctx context.Context, userID int64, r Reply) error
}

// Rows lays buttons out n per row.
func Rows(buttons []Button, n int) *Keyboard {
	if n <= 0 {
		n = 1
	}
	kb := &Keyboard{}
	for i := 0; i < len(buttons); i += n {
		kb.Rows = append(kb.Rows, buttons[i:min(i+n, len(buttons))])
	}
	return kb
}
