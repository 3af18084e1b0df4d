package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/kinobot/core/telegram/format"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
	"github.com/m3rciful/kinobot/internal/search"
	"github.com/m3rciful/kinobot/internal/wizard"
)

// captionLimit is Telegram's media caption limit; captionSlack leaves room
// for HTML escaping of the description.
const (
	captionLimit = 1024
	captionSlack = 128
)

type detail struct {
	ID          int64
	Title       string
	Description string
	Genre       string
	Year        *int
	Rating      *float64
	MediaRef    string
	PosterRef   string
}

func entryDetail(e catalog.Entry) detail {
	return detail{
		ID: e.ID, Title: e.Title, Description: e.Description, Genre: e.Genre,
		Year: e.Year, Rating: e.Rating, MediaRef: e.MediaRef, PosterRef: e.PosterRef,
	}
}

func resultDetail(r search.Result) detail {
	return detail{
		ID: r.ID, Title: r.Title, Description: r.Description, Genre: r.Genre,
		Year: r.Year, Rating: r.Rating, MediaRef: r.MediaRef, PosterRef: r.PosterRef,
	}
}

// detailReply renders an entry as a video with caption, or as text when
// the entry has no media.
func detailReply(d detail) chat.Reply {
	var head strings.Builder
	head.WriteString("🎬 " + format.Bold(d.Title))
	if d.Year != nil {
		fmt.Fprintf(&head, " (%d)", *d.Year)
	}
	head.WriteString("\n")
	fmt.Fprintf(&head, "⭐ Rating: %s/10\n", wizard.FormatRating(d.Rating))
	if d.Genre != "" {
		fmt.Fprintf(&head, "🎭 Genre: %s\n", format.Escape(d.Genre))
	}

	text := head.String()
	if d.Description != "" {
		room := captionLimit - captionSlack - utf8.RuneCountInString(text)
		if room > 0 {
			text += "\n" + format.Escape(format.Truncate(d.Description, room))
		}
	}
	return chat.Reply{Text: text, Video: d.MediaRef}
}

func (r *Router) searchText(ctx context.Context, ev chat.Event, out chat.Responder) error {
	query := strings.TrimSpace(ev.Text)
	results, err := r.search.Search(ctx, query, r.users.Locale(ctx, ev.UserID))
	if err != nil {
		return err
	}
	switch len(results) {
	case 0:
		return out.Reply(ctx, chat.Reply{Text: textNotFound})
	case 1:
		return out.Reply(ctx, detailReply(resultDetail(results[0])))
	}
	return out.Reply(ctx, chat.Reply{
		Text:    fmt.Sprintf(textManyFound, len(results), format.Escape(query)),
		Buttons: chat.Rows([]chat.Button{chat.SearchButton(textRefineButton, query)}, 1),
	})
}

func (r *Router) inline(ctx context.Context, ev chat.Event, out chat.Responder) error {
	query := strings.TrimSpace(ev.Query)
	if query == "" {
		return out.AnswerInline(ctx, nil)
	}
	results, err := r.search.Search(ctx, query, r.users.Locale(ctx, ev.UserID))
	if err != nil {
		return err
	}
	cards := make([]chat.InlineResult, 0, len(results))
	for _, res := range results {
		cards = append(cards, r.card(res))
	}
	return out.AnswerInline(ctx, cards)
}

func (r *Router) card(res search.Result) chat.InlineResult {
	title := res.Title
	if res.Year != nil {
		title = fmt.Sprintf("%s (%d)", res.Title, *res.Year)
	}
	desc := "⭐ " + wizard.FormatRating(res.Rating) + "/10"
	if res.Genre != "" {
		desc += " · " + res.Genre
	}
	return chat.InlineResult{
		Title:       title,
		Description: desc,
		ThumbURL:    r.thumb(res.PosterRef),
		Text:        "/" + CmdStart + " " + DeepLinkPrefix + strconv.FormatInt(res.ID, 10),
	}
}

// thumb picks the poster when it is a public https URL and the configured
// default otherwise. Telegram file URLs embed the bot token.
func (r *Router) thumb(poster string) string {
	if strings.HasPrefix(poster, "https://") && !strings.Contains(poster, "api.telegram.org") {
		return poster
	}
	return r.cfg.DefaultThumbURL
}
