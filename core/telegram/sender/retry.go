package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
)

func (d *Dispatcher) run(parent context.Context, call Call) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = d.limiter.Wait(ctx); err != nil {
			break
		}
		if err = call.Run(); err == nil {
			logger.Debug(parent, "tg.sender", "send.ok", callAttrs(call,
				slog.Int("attempt", attempt),
				slog.Duration("duration", logger.Took(start)),
			)...)
			return nil
		}
		if attempt == attempts || !retryable(err) {
			break
		}
		delay := d.opts.RetryBackoff * time.Duration(attempt)
		if wait := floodWait(err); wait > delay {
			delay = wait
		}
		logger.Debug(parent, "tg.sender", "send.retry", callAttrs(call,
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err_kind", classify(err)),
		)...)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
			attempt = attempts
		case <-timer.C:
		}
	}

	d.failed.Add(1)
	logger.Error(parent, "tg.sender", "send.fail", callAttrs(call,
		slog.String("err", redact(err)),
		slog.String("err_kind", classify(err)),
		slog.Duration("duration", logger.Took(start)),
	)...)
	return err
}

func callAttrs(call Call, extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+2)
	attrs = append(attrs, slog.String("action", call.Action))
	if call.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", call.Endpoint))
	}
	return append(attrs, extra...)
}
