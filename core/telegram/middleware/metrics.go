package middleware

import tele "gopkg.in/telebot.v4"

const countersKey = "out_counters"

// counters tracks what a handler sent back for one update.
type counters struct {
	messages int
	keyboard bool
}

// countingContext counts successful sends made through the handler's
// tele.Context. Sends that bypass the context are not seen.
type countingContext struct {
	tele.Context
	n *counters
}

func (c countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.n.messages++
	if !c.n.keyboard {
		c.n.keyboard = carriesMarkup(opts)
	}
	return nil
}

func carriesMarkup(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

// Answer counts an inline query answer as one message.
func (c countingContext) Answer(resp *tele.QueryResponse) error {
	return c.count(c.Context.Answer(resp), nil)
}

// MessageMetricsMiddleware hands the next handler a context that counts
// outgoing messages; read them back with GetCounters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns the number of messages sent for the current update
// and whether any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	n, ok := c.Get(countersKey).(*counters)
	if !ok {
		return 0, false
	}
	return n.messages, n.keyboard
}
