package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	coretelegram "github.com/m3rciful/kinobot/core/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("KINOBOT_TEST_CONFIG", "/from/env.yaml")

	p, err := ResolveConfigPath(Options{ConfigPath: "/explicit.yaml", ConfigEnvVar: "KINOBOT_TEST_CONFIG"})
	require.NoError(t, err)
	assert.Equal(t, "/explicit.yaml", p)

	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KINOBOT_TEST_CONFIG", DefaultConfigPath: "/default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/from/env.yaml", p)

	t.Setenv("KINOBOT_TEST_CONFIG", "")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KINOBOT_TEST_CONFIG", DefaultConfigPath: "/default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/default.yaml", p)

	_, err = ResolveConfigPath(Options{ConfigEnvVar: "KINOBOT_TEST_CONFIG"})
	assert.Error(t, err)
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(context.Background(), Options{}))
}

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWrapsLifecycleAndCloses(t *testing.T) {
	app := &fakeApp{}
	var events []string
	err := Run(context.Background(), Options{
		ConfigPath: "/cfg.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "/cfg.yaml", path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			events = append(events, "started")
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			events = append(events, "stopped")
			return nil
		},
		ShutdownLogger: func() error {
			events = append(events, "logger")
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, app.closed)
	assert.Equal(t, []string{"started", "stopped", "logger"}, events)
}

func TestRunReportsLoadFailure(t *testing.T) {
	boom := errors.New("bad yaml")
	err := Run(context.Background(), Options{
		ConfigPath: "/cfg.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorIs(t, err, boom)
}
