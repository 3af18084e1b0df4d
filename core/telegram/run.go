package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	tgsender "github.com/m3rciful/kinobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint (command, tele.OnText, ...).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram. Only Config is required.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher
	Sequencer         *Sequencer

	Middlewares []Middleware
	Routes      []Route
	// BuildRoutes runs once the bot exists; its routes follow Routes.
	BuildRoutes func(rt Runtime) ([]Route, error)

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks and route builders get to see.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
	Sequencer  *Sequencer
}

// RunTelegram builds the bot, wires routes and serves updates until ctx is
// done. Shutdown drains the sequencer before OnStop runs.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config

	started := time.Now()
	bot, err := newBot(cfg)
	if err != nil {
		return err
	}
	logMode(ctx, bot, cfg, logger.Took(started), !opts.DisableWebhookCleanup)

	rt := opts.runtime(bot, cfg)
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(rt.Dispatcher)
	}
	release := func() {
		rt.Sequencer.Close()
		rt.Dispatcher.Close()
		if !opts.DisableHelperDispatcher {
			tghelpers.SetDispatcher(nil)
		}
	}

	if err := wire(bot, opts, rt); err != nil {
		release()
		return err
	}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			release()
			return err
		}
	}

	runErr := serve(ctx, bot)
	rt.Sequencer.Close()

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	release()

	if stopErr != nil {
		return stopErr
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func newBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	pollTimeout := longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)
	bot, err := tele.NewBot(tele.Settings{
		Token: cfg.Telegram.Token,
		Poller: BuildPoller(PollerOptions{
			RunMode:                cfg.Telegram.RunMode,
			LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
			Webhook: WebhookOptions{
				Listen: cfg.Webhook.Listen,
				Port:   cfg.Webhook.Port,
				URL:    cfg.Webhook.URL,
			},
		}),
		Synchronous: true,
		Client: netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:         pollTimeout + 20*time.Second,
			ResponseTimeout: pollTimeout + 10*time.Second,
		}),
		OnError: func(err error, c tele.Context) {
			attrs := []slog.Attr{slog.String("err", err.Error())}
			if c != nil {
				attrs = append(attrs, slog.Int("update_id", c.Update().ID))
			}
			logger.LogEvent(context.Background(), logger.TG, slog.LevelError, "tg.error", attrs...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

func (o RunOptions) runtime(bot *tele.Bot, cfg *coreconfig.Config) Runtime {
	rt := Runtime{Bot: bot, Dispatcher: o.Dispatcher, Registry: o.Registry, Sequencer: o.Sequencer}
	if rt.Registry == nil {
		rt.Registry = NewRegistry()
	}
	if rt.Dispatcher == nil {
		dopts := o.DispatcherOptions
		if dopts.PerSecond <= 0 {
			dopts.PerSecond = cfg.Telegram.OutboundPerSecond
		}
		rt.Dispatcher = tgsender.NewDispatcher(dopts)
	}
	if rt.Sequencer == nil {
		rt.Sequencer = NewSequencer()
	}
	return rt
}

// logMode reports the update source. Polling bots drop a stale webhook
// first, otherwise getUpdates keeps failing with a conflict.
func logMode(ctx context.Context, bot *tele.Bot, cfg *coreconfig.Config, took time.Duration, cleanup bool) {
	if wh, ok := bot.Poller.(*tele.Webhook); ok {
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", "webhook"),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", int(longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)/time.Second)),
		slog.Duration("duration", took),
	)
	if !cleanup || cfg.Telegram.RunMode != coreconfig.RunModeLongpoll {
		return
	}
	if err := bot.RemoveWebhook(false); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook", slog.String("status", "ok"))
}

func wire(bot *tele.Bot, opts RunOptions, rt Runtime) error {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	routes := opts.Routes
	if opts.BuildRoutes != nil {
		extra, err := opts.BuildRoutes(rt)
		if err != nil {
			return fmt.Errorf("telegram: build routes: %w", err)
		}
		routes = append(routes, extra...)
	}
	for _, r := range routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, rt.Registry)
	return nil
}

// serve blocks in bot.Start until ctx is done or the poller gives up.
func serve(ctx context.Context, bot *tele.Bot) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-stopped
		return ctx.Err()
	case <-stopped:
		return nil
	}
}
