package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// Do runs an outbound call through the dispatcher retry policy and waits for
// the result. Without a dispatcher the call runs once.
func Do(ctx context.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}
	return disp.Do(ctx, sender.Call{Action: action, Endpoint: endpoint, Run: run})
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, sender.Call{Action: action, Endpoint: endpoint, Run: run}); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// Send delivers what to the current chat and waits for the outcome so that
// replies of one update keep their order.
func Send(c tele.Context, action string, what any, opts *tele.SendOptions) error {
	endpoint := "sendMessage"
	switch what.(type) {
	case *tele.Photo:
		endpoint = "sendPhoto"
	case *tele.Video:
		endpoint = "sendVideo"
	}
	return Do(BuildContext(c), action, endpoint, func() error {
		if opts != nil {
			return c.Send(what, opts)
		}
		return c.Send(what)
	})
}

// RespondAsync acknowledges a callback query in the background; the answer
// only dismisses the client spinner so ordering does not matter.
func RespondAsync(c tele.Context, resp *tele.CallbackResponse) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "callback.ack", "answerCallbackQuery", func() error {
		if resp == nil {
			return c.Respond()
		}
		return c.Respond(resp)
	})
}

// NotifyAsync sends a chat action such as "upload_video".
func NotifyAsync(c tele.Context, action tele.ChatAction) error {
	return sendAsync(c, "send.action", "sendChatAction", func() error {
		return c.Notify(action)
	})
}
