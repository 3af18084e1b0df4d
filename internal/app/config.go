// Package app wires the catalog bot together from configuration.
package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	"github.com/m3rciful/kinobot/core/database"
	"github.com/m3rciful/kinobot/internal/imagehost"
)

// CatalogConfig holds catalog presentation settings.
type CatalogConfig struct {
	BannerURL       string   `yaml:"banner_url" envconfig:"CATALOG_BANNER_URL" validate:"omitempty,url"`
	DefaultThumbURL string   `yaml:"default_thumb_url" envconfig:"CATALOG_DEFAULT_THUMB_URL" validate:"omitempty,url"`
	SeedFile        string   `yaml:"seed_file" envconfig:"CATALOG_SEED_FILE"`
	Genres          []string `yaml:"genres" validate:"omitempty,dive,required,max=64"`
}

// ImageHostConfig configures poster re-hosting. An empty key disables it.
type ImageHostConfig struct {
	APIKey         string `yaml:"api_key" envconfig:"IMGBB_API_KEY"`
	Endpoint       string `yaml:"endpoint" envconfig:"IMGBB_ENDPOINT" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0,lte=300"`
}

// BroadcastConfig tunes broadcast fan-out.
type BroadcastConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"BROADCAST_INTERVAL_MS" validate:"gte=0,lte=60000"`
	Workers    int `yaml:"workers" envconfig:"BROADCAST_WORKERS" validate:"gte=0,lte=32"`
}

// MetricsConfig configures the ops HTTP server. An empty address disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN" validate:"omitempty,hostname_port"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  database.Config `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	ImageHost ImageHostConfig `yaml:"image_host"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// LoadConfig reads path, overlays the environment, normalizes the core
// section and validates the rest.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Database.Driver == database.DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "kinobot.db"
	}
	if c.ImageHost.Endpoint == "" {
		c.ImageHost.Endpoint = imagehost.DefaultEndpoint
	}
	return nil
}

// ImageHostTimeout is the upload timeout, zero for the client default.
func (c *Config) ImageHostTimeout() time.Duration {
	return time.Duration(c.ImageHost.TimeoutSeconds) * time.Second
}

// BroadcastInterval is the delay between broadcast sends.
func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.Broadcast.IntervalMS) * time.Millisecond
}
