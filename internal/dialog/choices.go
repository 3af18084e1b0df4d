package dialog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
)

// Choice keys handled without a session.
const (
	ChoiceView   = "view"
	ChoiceEdit   = "edit"
	ChoiceDelete = "delete"
	ChoiceLang   = "lang"
)

func (r *Router) choice(ctx context.Context, ev chat.Event, out chat.Responder) error {
	switch ev.Choice.Key {
	case ChoiceView:
		id, err := choiceID(ev, "dialog.view")
		if err != nil {
			return err
		}
		e, err := r.catalog.Get(ctx, id)
		if err != nil {
			return err
		}
		return out.Reply(ctx, detailReply(entryDetail(e)))

	case ChoiceEdit:
		if err := r.requireOperator(ev, "dialog.edit"); err != nil {
			return err
		}
		id, err := choiceID(ev, "dialog.edit")
		if err != nil {
			return err
		}
		e, err := r.catalog.Get(ctx, id)
		if err != nil {
			return err
		}
		return r.wizard.StartEdit(ctx, ev.UserID, catalog.Summary{ID: e.ID, Title: e.Title}, out)

	case ChoiceDelete:
		if err := r.requireOperator(ev, "dialog.delete"); err != nil {
			return err
		}
		id, err := choiceID(ev, "dialog.delete")
		if err != nil {
			return err
		}
		if err := r.catalog.Delete(ctx, id); err != nil {
			return err
		}
		return out.Reply(ctx, chat.Reply{Text: fmt.Sprintf(textDeleted, id)})

	case ChoiceLang:
		for _, l := range languages {
			if l.Code == ev.Choice.Value {
				if err := r.users.SetLocale(ctx, ev.UserID, l.Code); err != nil {
					return err
				}
				return out.Reply(ctx, chat.Reply{Text: textLanguageSet})
			}
		}
		return apperr.Validation("dialog.lang", "unknown language")
	}
	return apperr.New(apperr.KindMalformedInput, "dialog.choice", "this button is no longer active")
}

func choiceID(ev chat.Event, op string) (int64, error) {
	id, err := strconv.ParseInt(ev.Choice.Value, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(op, textInvalidID)
	}
	return id, nil
}
