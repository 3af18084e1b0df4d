package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline keyboard button. Exactly one action applies, in
// this order: URL opens a link, Unique sends callback data Unique|Data, and
// otherwise the button switches the user to an inline query for Query in
// the current chat.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	Query  string
	URL    string
}

func (b InlineBtn) build(markup *tele.ReplyMarkup) tele.InlineButton {
	switch {
	case b.URL != "":
		return tele.InlineButton{Text: b.Text, URL: b.URL}
	case b.Unique != "":
		return *markup.Data(b.Text, b.Unique, b.Data).Inline()
	}
	return tele.InlineButton{Text: b.Text, InlineQueryChat: b.Query}
}

// Inline lays rows out as an inline keyboard.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		built := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			built = append(built, b.build(markup))
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, built)
	}
	return markup
}

// Reply builds a resized reply keyboard whose buttons send their label.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	built := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		btns := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			btns = append(btns, markup.Text(label))
		}
		built = append(built, markup.Row(btns...))
	}
	markup.Reply(built...)
	return markup
}

// Remove hides a previously shown reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
