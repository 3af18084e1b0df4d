package router

import (
	"errors"
	"sync"
	"testing"
	"time"

	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "nope" }
func (codedErr) Code() string  { return "not_found" }

func textContext(userID int64, text string) tele.Context {
	return tele.NewContext(nil, tele.Update{ID: 7, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
	}})
}

func findRoute(routes []tg.Route, endpoint any) (tg.Route, bool) {
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r, true
		}
	}
	return tg.Route{}, false
}

func TestRoutesBindsCommandsAndAliases(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Description: "stats", Aliases: []string{"statistika"}}))
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Description: "start"}))

	noop := func(tele.Context) error { return nil }
	routes := Routes(Options{
		Registry: reg,
		Handlers: Handlers{Command: noop, Text: noop, Callback: noop, Query: noop, Media: noop},
	})

	for _, ep := range []any{"/stats", "/statistika", "/start", tele.OnText, tele.OnCallback, tele.OnQuery, tele.OnVideo, tele.OnPhoto, tele.OnDocument} {
		_, ok := findRoute(routes, ep)
		assert.True(t, ok, "missing route %v", ep)
	}
}

func TestRoutesSkipsNilHandlers(t *testing.T) {
	routes := Routes(Options{Handlers: Handlers{Text: func(tele.Context) error { return nil }}})
	require.Len(t, routes, 1)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
}

func TestRoutesReportsHandled(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
		errs  []error
	)
	routes := Routes(Options{
		Handlers: Handlers{Text: func(tele.Context) error { return codedErr{} }},
		OnHandled: func(name string, err error, _ time.Duration) {
			mu.Lock()
			names = append(names, name)
			errs = append(errs, err)
			mu.Unlock()
		},
	})
	route, ok := findRoute(routes, tele.OnText)
	require.True(t, ok)

	err := route.Handler(textContext(1, "hello"))
	assert.ErrorAs(t, err, &codedErr{})
	assert.Equal(t, []string{"text"}, names)
	assert.True(t, errors.Is(errs[0], codedErr{}))
}

func TestRoutesSequencedPreservesOrder(t *testing.T) {
	seq := tg.NewSequencer()
	var (
		mu  sync.Mutex
		got []string
	)
	routes := Routes(Options{
		Sequencer: seq,
		Handlers: Handlers{Text: func(c tele.Context) error {
			mu.Lock()
			got = append(got, c.Text())
			mu.Unlock()
			return nil
		}},
	})
	route, _ := findRoute(routes, tele.OnText)
	for _, s := range []string{"a", "b", "c", "d"} {
		require.NoError(t, route.Handler(textContext(5, s)))
	}
	seq.Close()
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRoutesRecoversPanics(t *testing.T) {
	routes := Routes(Options{Handlers: Handlers{Text: func(tele.Context) error { panic("boom") }}})
	route, _ := findRoute(routes, tele.OnText)
	assert.Error(t, route.Handler(textContext(1, "x")))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "not_found", errorKind(codedErr{}))
	assert.Equal(t, "internal", errorKind(errors.New("boom")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "start", normalizeHandlerName("/start"))
	assert.Equal(t, "unknown", normalizeHandlerName("  "))
}
