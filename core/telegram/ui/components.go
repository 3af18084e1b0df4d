package ui

import tele "gopkg.in/telebot.v4"

// Article describes one inline query result card.
type Article struct {
	ID          string
	Title       string
	Description string
	ThumbURL    string
	// Text is sent to the chat when the card is picked.
	Text string
}

// NewArticleResult creates an ArticleResult from a.
func NewArticleResult(a Article) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       a.Title,
		Description: a.Description,
		Text:        a.Text,
		ThumbURL:    a.ThumbURL,
	}
	result.SetResultID(a.ID)
	return result
}

// ArticleResults converts cards into telebot results, preserving order.
func ArticleResults(cards []Article) tele.Results {
	results := make(tele.Results, 0, len(cards))
	for _, a := range cards {
		results = append(results, NewArticleResult(a))
	}
	return results
}
