package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
)

// Choice keys owned by the wizard.
const (
	KeyType     = "type"
	KeyGenre    = "genre"
	KeyYear     = "year"
	KeyDuration = "duration"
	KeyRating   = "rating"
	KeyConfirm  = "confirm"
)

// Confirm values.
const (
	ConfirmYes = "yes"
	ConfirmNo  = "no"
)

// Value bounds accepted from menus.
const (
	MinYear     = 1888
	MaxYear     = 2100
	MinDuration = 1
	MaxDuration = 1000
)

// DefaultGenres is the genre menu when none is configured.
var DefaultGenres = []string{"Action", "Comedy", "Drama", "Horror", "Fantasy", "Thriller"}

var durationMenu = []int{30, 45, 60, 90, 100, 110, 120, 130, 150, 180}

// yearMenuSpan is how many recent years the year menu lists.
const yearMenuSpan = 10

// OwnsChoice reports whether key is one of the wizard's menus.
func OwnsChoice(key string) bool {
	switch key {
	case KeyType, KeyGenre, KeyYear, KeyDuration, KeyRating, KeyConfirm:
		return true
	}
	return false
}

func typeMenu() *chat.Keyboard {
	btns := make([]chat.Button, 0, len(catalog.Kinds))
	for _, k := range catalog.Kinds {
		btns = append(btns, chat.ChoiceButton(k.Label(), KeyType, string(k)))
	}
	return chat.Rows(btns, 3)
}

func genreMenu(genres []string) *chat.Keyboard {
	btns := make([]chat.Button, 0, len(genres))
	for _, g := range genres {
		btns = append(btns, chat.ChoiceButton(g, KeyGenre, g))
	}
	return chat.Rows(btns, 2)
}

func yearMenu(current int) *chat.Keyboard {
	btns := make([]chat.Button, 0, yearMenuSpan)
	for y := current - yearMenuSpan + 1; y <= current; y++ {
		v := strconv.Itoa(y)
		btns = append(btns, chat.ChoiceButton(v, KeyYear, v))
	}
	return chat.Rows(btns, 5)
}

func durationMenuKeyboard() *chat.Keyboard {
	btns := make([]chat.Button, 0, len(durationMenu))
	for _, d := range durationMenu {
		v := strconv.Itoa(d)
		btns = append(btns, chat.ChoiceButton(v+" min", KeyDuration, v))
	}
	return chat.Rows(btns, 3)
}

func ratingMenu() *chat.Keyboard {
	btns := make([]chat.Button, 0, catalog.MaxRating+1)
	for r := catalog.MinRating; r <= catalog.MaxRating; r++ {
		v := strconv.Itoa(r)
		btns = append(btns, chat.ChoiceButton("⭐ "+v, KeyRating, v))
	}
	return chat.Rows(btns, 4)
}

func confirmMenu() *chat.Keyboard {
	return chat.Rows([]chat.Button{
		chat.ChoiceButton("✅ Confirm", KeyConfirm, ConfirmYes),
		chat.ChoiceButton("❌ Cancel", KeyConfirm, ConfirmNo),
	}, 2)
}

// menuValue is the picked button value, or the typed text for steps that
// also take free input.
func menuValue(ev chat.Event) string {
	if ev.Kind == chat.KindChoice {
		return ev.Choice.Value
	}
	return ev.Text
}

func parseKind(v string) (catalog.Kind, error) {
	k, ok := catalog.ParseKind(v)
	if !ok {
		return "", apperr.Validation("wizard.type", fmt.Sprintf("unknown type %q", v))
	}
	return k, nil
}

func parseGenre(v string, genres []string) (string, error) {
	v = strings.TrimSpace(v)
	for _, g := range genres {
		if strings.EqualFold(g, v) {
			return g, nil
		}
	}
	return "", apperr.Validation("wizard.genre", fmt.Sprintf("unknown genre %q", v))
}

func parseBounded(op, name, v string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, apperr.Validation(op, fmt.Sprintf("%s must be a number", name))
	}
	if n < lo || n > hi {
		return 0, apperr.Validation(op, fmt.Sprintf("%s must be between %d and %d", name, lo, hi))
	}
	return n, nil
}
