// Package imagehost re-hosts poster images on ImgBB.
package imagehost

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
	"github.com/m3rciful/kinobot/internal/apperr"
)

// DefaultEndpoint is the ImgBB upload API.
const DefaultEndpoint = "https://api.imgbb.com/1/upload"

const (
	defaultTimeout          = 30 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = time.Minute
	maxResponseBytes        = 1 << 20
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker; OpenTimeout is how long it stays open.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
	// OnStateChange observes breaker transitions.
	OnStateChange func(from, to string)
}

// Client uploads images to ImgBB through a circuit breaker.
type Client struct {
	http     *http.Client
	endpoint string
	key      string
	cb       *gobreaker.CircuitBreaker[string]
}

// New returns a Client. An empty API key is an error.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("imagehost: api key is required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaultFailureThreshold
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:         opts.Timeout,
			ResponseTimeout: opts.Timeout,
			RetryAttempts:   1,
			RetryBackoff:    time.Second,
		})
	}

	threshold := opts.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "imgbb",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.LogEvent(context.Background(), logger.SVCImages, slog.LevelWarn, "breaker.state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if opts.OnStateChange != nil {
				opts.OnStateChange(from.String(), to.String())
			}
		},
	})

	return &Client{http: hc, endpoint: opts.Endpoint, key: opts.APIKey, cb: cb}, nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (c *Client) State() string {
	return c.cb.State().String()
}

// Upload sends image and returns its public URL. Every failure is an
// apperr upload error whose message is safe to show.
func (c *Client) Upload(ctx context.Context, name string, image []byte) (string, error) {
	const op = "imagehost.upload"
	if len(image) == 0 {
		return "", apperr.New(apperr.KindUpload, op, "empty image")
	}

	start := time.Now()
	link, err := c.cb.Execute(func() (string, error) {
		return c.upload(ctx, name, image)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperr.Wrap(apperr.KindUpload, op, "image host is unavailable, try again later", err)
	}

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.Int("bytes", len(image)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.SVCImages, level, "image.upload", attrs...)
	if err != nil {
		return "", err
	}
	return link, nil
}

type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) upload(ctx context.Context, name string, image []byte) (string, error) {
	const op = "imagehost.upload"
	form := url.Values{}
	form.Set("key", c.key)
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	if name != "" {
		form.Set("name", strings.TrimSuffix(name, ".jpg"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, op, "could not build the request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, op, "image host is unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, op, "could not read the host response", err)
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperr.Wrap(apperr.KindUpload, op,
			fmt.Sprintf("unexpected host response (HTTP %d)", resp.StatusCode), err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success || out.Data.URL == "" {
		msg := out.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("upload failed (HTTP %d)", resp.StatusCode)
		}
		return "", apperr.New(apperr.KindUpload, op, msg)
	}
	return out.Data.URL, nil
}
