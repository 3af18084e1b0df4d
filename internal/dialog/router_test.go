package dialog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
	"github.com/m3rciful/kinobot/internal/chat/chattest"
	"github.com/m3rciful/kinobot/internal/dialog"
	"github.com/m3rciful/kinobot/internal/search"
	"github.com/m3rciful/kinobot/internal/testutil"
	"github.com/m3rciful/kinobot/internal/users"
	"github.com/m3rciful/kinobot/internal/wizard"
)

const (
	operator = int64(1001)
	visitor  = int64(2002)
)

type fixture struct {
	catalog *catalog.Store
	users   *users.Registry
	wizard  *wizard.Machine
	router  *dialog.Router
	out     *chattest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := catalog.NewStore(db)
	reg := users.NewRegistry(db)
	wiz := wizard.NewMachine(wizard.Config{
		Catalog: store,
		Now:     func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	r := dialog.New(dialog.Config{
		Operators:       []int64{operator},
		BannerURL:       "https://example.com/banner.jpg",
		DefaultThumbURL: "https://example.com/thumb.jpg",
	}, store, reg, search.NewEngine(store), wiz)
	return &fixture{catalog: store, users: reg, wizard: wiz, router: r, out: &chattest.Recorder{}}
}

func (f *fixture) send(t *testing.T, ev chat.Event) {
	t.Helper()
	require.NoError(t, f.router.Handle(context.Background(), ev, f.out))
}

func (f *fixture) add(t *testing.T, title string, mutate func(*catalog.NewEntry)) int64 {
	t.Helper()
	e := catalog.NewEntry{Title: title, MediaRef: "VID-" + title, Kind: catalog.KindMovie, Genre: "Drama"}
	if mutate != nil {
		mutate(&e)
	}
	id, err := f.catalog.Create(context.Background(), e)
	require.NoError(t, err)
	return id
}

func TestStartRegistersAndWelcomes(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Command(visitor, dialog.CmdStart, ""))

	last := f.out.Last()
	assert.Equal(t, "https://example.com/banner.jpg", last.Photo)
	assert.Contains(t, last.Text, "Welcome")
	require.NotNil(t, last.Buttons)
	assert.True(t, last.Buttons.Rows[0][0].Search)

	n, err := f.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f.send(t, chattest.Command(visitor, dialog.CmdStart, ""))
	n, err = f.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartFallsBackToTextWhenBannerFails(t *testing.T) {
	f := newFixture(t)
	f.out.FailPhoto = fmt.Errorf("bad banner")
	f.send(t, chattest.Command(visitor, dialog.CmdStart, ""))
	require.Len(t, f.out.Replies, 1)
	assert.Empty(t, f.out.Replies[0].Photo)
	assert.Contains(t, f.out.Replies[0].Text, "Welcome")
}

func TestSearchNotFound(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Text(visitor, "Matrix"))
	assert.Equal(t, "😔 Nothing found.", f.out.Last().Text)
}

func TestSearchSingleMatchRendersDetail(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Dune", func(e *catalog.NewEntry) {
		y, r := 2021, 8.0
		e.Year, e.Rating, e.Description = &y, &r, "Desert <planet>"
	})
	f.add(t, "Alien", nil)

	f.send(t, chattest.Text(visitor, "dUNe"))
	last := f.out.Last()
	assert.Equal(t, "VID-Dune", last.Video)
	assert.Contains(t, last.Text, "<b>Dune</b> (2021)")
	assert.Contains(t, last.Text, "8/10")
	assert.Contains(t, last.Text, "Desert &lt;planet&gt;")
}

func TestSearchManyMatchesOffersRefine(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Star Wars", nil)
	f.add(t, "Star Trek", nil)

	f.send(t, chattest.Text(visitor, "star"))
	last := f.out.Last()
	assert.Contains(t, last.Text, "Found 2 matches")
	require.NotNil(t, last.Buttons)
	btn := last.Buttons.Rows[0][0]
	assert.True(t, btn.Search)
	assert.Equal(t, "star", btn.Query)
}

func TestDeepLink(t *testing.T) {
	f := newFixture(t)
	id := f.add(t, "Dune", nil)

	f.send(t, chattest.Command(visitor, dialog.CmdStart, fmt.Sprintf("movie_%d", id)))
	assert.Equal(t, "VID-Dune", f.out.Last().Video)

	f.send(t, chattest.Command(visitor, dialog.CmdStart, "movie_abc"))
	assert.Equal(t, "❌ invalid id", f.out.Last().Text)

	f.send(t, chattest.Command(visitor, dialog.CmdStart, "movie_999"))
	assert.Equal(t, "😔 Nothing found.", f.out.Last().Text)
}

func TestNonOperatorIsRejected(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{dialog.CmdAddMovie, dialog.CmdStats, dialog.CmdBroadcast, dialog.CmdManage, dialog.CmdAdmin} {
		f.send(t, chattest.Command(visitor, cmd, ""))
		assert.Equal(t, "⛔ This command is available to operators only.", f.out.Last().Text, cmd)
	}
	_, active := f.wizard.Active(visitor)
	assert.False(t, active)

	id := f.add(t, "Dune", nil)
	f.send(t, chattest.Choice(visitor, dialog.ChoiceDelete, fmt.Sprint(id)))
	_, err := f.catalog.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestAddFlowThroughRouter(t *testing.T) {
	f := newFixture(t)
	steps := []chat.Event{
		chattest.Command(operator, dialog.CmdAddMovie, ""),
		chattest.Choice(operator, wizard.KeyType, "movie"),
		chattest.Text(operator, "Dune"),
		chattest.Text(operator, "Desert planet saga"),
		chattest.Choice(operator, wizard.KeyGenre, "Drama"),
		chattest.Choice(operator, wizard.KeyYear, "2024"),
		chattest.Choice(operator, wizard.KeyDuration, "155"),
		chattest.Choice(operator, wizard.KeyRating, "8"),
		chattest.Video(operator, "VID1"),
		chattest.Text(operator, "https://example.com/dune.jpg"),
		chattest.Choice(operator, wizard.KeyConfirm, wizard.ConfirmYes),
	}
	for _, ev := range steps {
		f.send(t, ev)
	}
	_, active := f.wizard.Active(operator)
	assert.False(t, active)

	list, err := f.catalog.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	e, err := f.catalog.Get(context.Background(), list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", e.Title)
	assert.InDelta(t, 8.0, *e.Rating, 0.001)

	// Edit the title through the manage buttons.
	f.send(t, chattest.Choice(operator, dialog.ChoiceEdit, fmt.Sprint(e.ID)))
	f.send(t, chattest.Text(operator, "Dune Part Two"))
	edited, err := f.catalog.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Part Two", edited.Title)
	assert.Equal(t, e.Genre, edited.Genre)
	assert.Equal(t, *e.Year, *edited.Year)
	assert.Equal(t, e.MediaRef, edited.MediaRef)
}

func TestCommandsWinOverWizard(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Command(operator, dialog.CmdAddMovie, ""))
	f.send(t, chattest.Choice(operator, wizard.KeyType, "movie"))

	f.send(t, chattest.Command(operator, dialog.CmdStats, ""))
	assert.Contains(t, f.out.Last().Text, "Statistics")
	s, ok := f.wizard.Active(operator)
	require.True(t, ok)
	assert.Equal(t, wizard.EnteringTitle, s.State)

	// Text while the wizard is active goes to the wizard, not to search.
	f.send(t, chattest.Text(operator, "Matrix"))
	s, _ = f.wizard.Active(operator)
	assert.Equal(t, wizard.EnteringDescription, s.State)

	f.send(t, chattest.Command(operator, dialog.CmdCancel, ""))
	_, ok = f.wizard.Active(operator)
	assert.False(t, ok)
	assert.True(t, f.out.Last().RemoveMenu)

	f.send(t, chattest.Command(operator, dialog.CmdCancel, ""))
	assert.Equal(t, "Nothing to cancel.", f.out.Last().Text)
}

func TestDeleteTwice(t *testing.T) {
	f := newFixture(t)
	id := f.add(t, "Dune", nil)

	f.send(t, chattest.Choice(operator, dialog.ChoiceDelete, fmt.Sprint(id)))
	assert.Contains(t, f.out.Last().Text, "deleted")
	f.send(t, chattest.Choice(operator, dialog.ChoiceDelete, fmt.Sprint(id)))
	assert.Contains(t, f.out.Last().Text, "deleted")

	n, err := f.catalog.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManageListsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Command(operator, dialog.CmdManage, ""))
	assert.Equal(t, "The catalog is empty.", f.out.Last().Text)

	for i := range 25 {
		f.add(t, fmt.Sprintf("Title %02d", i), nil)
	}
	f.out.Reset()
	f.send(t, chattest.Command(operator, dialog.CmdManage, ""))
	require.Len(t, f.out.Replies, 2)
	first := f.out.Replies[0]
	assert.Contains(t, first.Text, "25 entries")
	require.Len(t, first.Buttons.Rows, 20)
	assert.Contains(t, first.Buttons.Rows[0][0].Text, "Title 24")
	assert.Equal(t, dialog.ChoiceEdit, first.Buttons.Rows[0][1].Choice.Key)
	assert.Len(t, f.out.Replies[1].Buttons.Rows, 5)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Command(visitor, dialog.CmdStart, ""))
	f.add(t, "Dune", nil)
	f.add(t, "Alien", nil)

	f.send(t, chattest.Command(operator, dialog.CmdStats, ""))
	assert.Contains(t, f.out.Last().Text, "Users: 1")
	assert.Contains(t, f.out.Last().Text, "Entries: 2")
}

func TestLanguagePicker(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Command(visitor, dialog.CmdLang, ""))
	require.NotNil(t, f.out.Last().Buttons)
	assert.Len(t, f.out.Last().Buttons.Rows, 3)

	f.send(t, chattest.Choice(visitor, dialog.ChoiceLang, "ru"))
	assert.Equal(t, "ru", f.users.Locale(context.Background(), visitor))

	f.send(t, chattest.Choice(visitor, dialog.ChoiceLang, "xx"))
	assert.Contains(t, f.out.Last().Text, "unknown language")
}

func TestInlineQuery(t *testing.T) {
	f := newFixture(t)
	id := f.add(t, "Dune", func(e *catalog.NewEntry) {
		y, r := 2021, 7.5
		e.Year, e.Rating, e.PosterRef = &y, &r, "https://i.ibb.co/dune.jpg"
	})
	f.add(t, "Dune Messiah", func(e *catalog.NewEntry) {
		e.PosterRef = "https://api.telegram.org/file/botTOKEN/photo.jpg"
	})

	f.send(t, chat.Event{Kind: chat.KindInlineQuery, UserID: visitor, Query: "dune"})
	require.Len(t, f.out.Inline, 1)
	cards := f.out.Inline[0]
	require.Len(t, cards, 2)
	assert.Equal(t, "Dune (2021)", cards[0].Title)
	assert.Contains(t, cards[0].Description, "7.5/10")
	assert.Equal(t, "https://i.ibb.co/dune.jpg", cards[0].ThumbURL)
	assert.Equal(t, fmt.Sprintf("/start movie_%d", id), cards[0].Text)
	assert.Equal(t, "https://example.com/thumb.jpg", cards[1].ThumbURL)

	f.send(t, chat.Event{Kind: chat.KindInlineQuery, UserID: visitor, Query: "  "})
	require.Len(t, f.out.Inline, 2)
	assert.Empty(t, f.out.Inline[1])
}

func TestInlineQueryCapsResults(t *testing.T) {
	f := newFixture(t)
	for i := range search.MaxResults + 5 {
		f.add(t, fmt.Sprintf("Saga %d", i), nil)
	}
	f.send(t, chat.Event{Kind: chat.KindInlineQuery, UserID: visitor, Query: "saga"})
	require.Len(t, f.out.Inline, 1)
	assert.Len(t, f.out.Inline[0], search.MaxResults)
}

func TestExpiredWizardMenuAndUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.send(t, chattest.Choice(visitor, wizard.KeyConfirm, wizard.ConfirmYes))
	assert.Contains(t, f.out.Last().Text, "expired")

	f.send(t, chattest.Text(visitor, "/nope"))
	assert.Contains(t, f.out.Last().Text, "Unknown command")
}

func TestUnexpectedErrorReturnsAndRepliesGenerically(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.router.Handle(ctx, chattest.Command(operator, dialog.CmdStats, ""), f.out)
	require.Error(t, err)
	assert.Contains(t, f.out.Last().Text, "Something went wrong")
}
