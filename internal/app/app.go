package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/bootstrap"
	"github.com/m3rciful/kinobot/core/cmd"
	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/state"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/router"
	"github.com/m3rciful/kinobot/internal/bot"
	"github.com/m3rciful/kinobot/internal/broadcast"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
	"github.com/m3rciful/kinobot/internal/dialog"
	"github.com/m3rciful/kinobot/internal/imagehost"
	"github.com/m3rciful/kinobot/internal/metrics"
	"github.com/m3rciful/kinobot/internal/search"
	"github.com/m3rciful/kinobot/internal/users"
	"github.com/m3rciful/kinobot/internal/wizard"
	"github.com/m3rciful/kinobot/migrations"
)

// App holds the long-lived components of a running bot.
type App struct {
	cfg *Config
	db  *sqlx.DB

	registry  *tg.Registry
	sequencer *tg.Sequencer
	sessions  state.Store[wizard.Session]

	catalog *catalog.Store
	users   *users.Registry
	search  *search.Engine
	images  *imagehost.Client
	metrics *metrics.Metrics
	ops     *metrics.Server
}

var (
	_ cmd.TelegramApp   = (*App)(nil)
	_ cmd.ConfigCarrier = (*Config)(nil)
)

// Load adapts LoadConfig to the command runner.
func Load(path string) (cmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Bootstrap adapts New to the command runner.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(context.Background(), cfg)
}

// New initializes logging and storage and builds the domain services.
func New(ctx context.Context, cfg *Config) (*App, error) {
	var seeders []bootstrap.Seeder
	if cfg.Catalog.SeedFile != "" {
		seeders = append(seeders, catalog.Seeder(cfg.Catalog.SeedFile))
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders:    seeders,
	})
	if err != nil {
		return nil, err
	}
	return newApp(cfg, res.DB)
}

// newApp builds the services over db and closes db when it fails.
func newApp(cfg *Config, db *sqlx.DB) (_ *App, err error) {
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	store := catalog.NewStore(db)
	a := &App{
		cfg:       cfg,
		db:        db,
		registry:  tg.NewRegistry(),
		sequencer: tg.NewSequencer(),
		sessions:  state.NewMemoryStore[wizard.Session](),
		catalog:   store,
		users:     users.NewRegistry(db),
		search:    search.NewEngine(store),
	}
	if err = bot.RegisterCommands(a.registry, dialog.Commands); err != nil {
		return nil, err
	}

	a.metrics = metrics.New(metrics.Gauges{
		ActiveSessions: func() float64 { return float64(a.sessions.Len()) },
		ActiveLanes:    func() float64 { return float64(a.sequencer.Active()) },
	})

	if cfg.ImageHost.APIKey != "" {
		images, err := imagehost.New(imagehost.Options{
			APIKey:        cfg.ImageHost.APIKey,
			Endpoint:      cfg.ImageHost.Endpoint,
			Timeout:       cfg.ImageHostTimeout(),
			OnStateChange: a.metrics.BreakerChanged,
		})
		if err != nil {
			return nil, err
		}
		a.images = images
	} else {
		logger.Warn(context.Background(), "app", "image_host.disabled",
			slog.String("reason", "no api key; posters must be sent as links"),
		)
	}

	if cfg.Metrics.Listen != "" {
		a.ops = metrics.NewServer(cfg.Metrics.Listen, a.metrics, a.db.PingContext)
	}
	return a, nil
}

// TelegramRunOptions assembles the bot runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Sequencer:   a.sequencer,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		BuildRoutes: a.routes,
		OnStart: func(context.Context, tg.Runtime) error {
			if a.ops == nil {
				return nil
			}
			return a.ops.Start()
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			if a.ops == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return a.ops.Shutdown(ctx)
		},
	}, nil
}

func (a *App) routes(rt tg.Runtime) ([]tg.Route, error) {
	sender := bot.NewSender(rt.Bot)
	broadcaster := &observedBroadcaster{
		inner: broadcast.New(a.users, sender, broadcast.Options{
			Interval: a.cfg.BroadcastInterval(),
			Workers:  a.cfg.Broadcast.Workers,
		}),
		metrics: a.metrics,
	}

	wcfg := wizard.Config{
		Sessions:    a.sessions,
		Catalog:     a.catalog,
		Files:       bot.NewFiles(rt.Bot),
		Broadcaster: broadcaster,
		Genres:      a.cfg.Catalog.Genres,
	}
	if a.images != nil {
		wcfg.Uploader = a.images
	}
	machine := wizard.NewMachine(wcfg)

	dr := dialog.New(dialog.Config{
		Operators:       a.cfg.Telegram.Operators,
		BannerURL:       a.cfg.Catalog.BannerURL,
		DefaultThumbURL: a.cfg.Catalog.DefaultThumbURL,
	}, a.catalog, a.users, a.search, machine)

	adapter := bot.NewAdapter(a.registry, dr, a.metrics)
	return router.Routes(router.Options{
		Registry:  a.registry,
		Sequencer: rt.Sequencer,
		Handlers:  adapter.Handlers(),
		OnHandled: a.metrics.ObserveHandled,
	}), nil
}

// Close releases the database.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// observedBroadcaster records broadcast outcomes.
type observedBroadcaster struct {
	inner   *broadcast.Broadcaster
	metrics *metrics.Metrics
}

func (b *observedBroadcaster) Broadcast(ctx context.Context, r chat.Reply) (broadcast.Report, error) {
	rep, err := b.inner.Broadcast(ctx, r)
	b.metrics.ObserveBroadcast(rep.Sent, rep.Failed)
	return rep, err
}
