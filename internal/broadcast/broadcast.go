// Package broadcast fans a message out to every registered user.
package broadcast

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/chat"
)

// DefaultInterval spaces consecutive sends.
const DefaultInterval = 50 * time.Millisecond

// Recipients lists broadcast targets.
type Recipients interface {
	AllIDs(ctx context.Context) iter.Seq2[int64, error]
}

// Options tunes a Broadcaster. Interval <= 0 selects DefaultInterval;
// Workers <= 0 selects one worker.
type Options struct {
	Interval time.Duration
	Workers  int
}

// Report summarises one broadcast.
type Report struct {
	Sent   int
	Failed int
	Total  int
}

// Broadcaster sends one message to all recipients, throttled by a rate
// limiter and bounded by a worker limit. Per-recipient failures are logged
// and skipped.
type Broadcaster struct {
	recipients Recipients
	sender     chat.Sender
	opts       Options
}

// New returns a Broadcaster.
func New(recipients Recipients, sender chat.Sender, opts Options) *Broadcaster {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Broadcaster{recipients: recipients, sender: sender, opts: opts}
}

// Broadcast delivers r to every recipient. It returns an error only when the
// recipient list cannot be read or ctx ends; the report is valid either way.
func (b *Broadcaster) Broadcast(ctx context.Context, r chat.Reply) (Report, error) {
	start := time.Now()
	limiter := rate.NewLimiter(rate.Every(b.opts.Interval), 1)

	var (
		g      errgroup.Group
		sent   atomic.Int64
		failed atomic.Int64
		total  int
		runErr error
	)
	g.SetLimit(b.opts.Workers)

	for id, err := range b.recipients.AllIDs(ctx) {
		if err != nil {
			runErr = fmt.Errorf("broadcast: %w", err)
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			runErr = fmt.Errorf("broadcast: %w", err)
			break
		}
		total++
		g.Go(func() error {
			if err := b.sender.SendTo(ctx, id, r); err != nil {
				failed.Add(1)
				logger.LogEvent(ctx, logger.SVCBroadcast, slog.LevelWarn, "broadcast.send_failed",
					slog.Int64("user_id", id),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Sent: int(sent.Load()), Failed: int(failed.Load()), Total: total}
	level := slog.LevelInfo
	if runErr != nil {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.Int("sent", rep.Sent),
		slog.Int("failed", rep.Failed),
		slog.Int("total", rep.Total),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if runErr != nil {
		attrs = append(attrs, slog.String("err", runErr.Error()))
	}
	logger.LogEvent(ctx, logger.SVCBroadcast, level, "broadcast.done", attrs...)
	return rep, runErr
}
