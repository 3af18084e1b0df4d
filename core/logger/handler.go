package logger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// handler renders records as one line of ordered fields. Context Meta fills
// in correlation fields, durations become <key>_ms integers and empty
// strings are dropped.
type handler struct {
	level  slog.Leveler
	out    *sink
	format format
	rank   map[string]int
	preset map[string]any
	group  string
}

func newHandler(out *sink, level slog.Leveler, f format, order []string) *handler {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &handler{level: level, out: out, format: f, rank: rank}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.preset)+r.NumAttrs()+8)
	for k, v := range h.preset {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(fields, h.group, a)
		return true
	})
	MetaFrom(ctx).fill(fields)
	if _, ok := fields["event"]; !ok {
		event := r.Message
		if event == "" {
			event = "unknown"
		}
		fields["event"] = event
	}
	if _, ok := fields["component"]; !ok {
		fields["component"] = "app"
	}
	fields["ts"] = r.Time.UTC().Format(tsLayout)
	fields["level"] = r.Level.String()

	line, err := h.encode(fields)
	if err != nil {
		return err
	}
	return h.out.write(line)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make(map[string]any, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		clone.preset[k] = v
	}
	for _, a := range attrs {
		collect(clone.preset, h.group, a)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = joinKey(h.group, name)
	return &clone
}

func (h *handler) keys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := h.rank[keys[i]]
		rj, jok := h.rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (h *handler) encode(fields map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	keys := h.keys(fields)
	if h.format == formatText {
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(textValue(fields[k]))
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
	buf.WriteByte('{')
	for i, k := range keys {
		raw, err := json.Marshal(fields[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(raw)
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func collect(fields map[string]any, group string, a slog.Attr) {
	v := a.Value.Resolve()
	key := joinKey(group, a.Key)
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			collect(fields, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindString:
		if s := strings.TrimSpace(v.String()); s != "" {
			fields[key] = s
		}
	case slog.KindDuration:
		fields[msKey(key)] = RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		fields[key] = v.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
		case error:
			fields[key] = x.Error()
		case time.Duration:
			fields[msKey(key)] = RoundMS(x).Milliseconds()
		case fmt.Stringer:
			if s := x.String(); s != "" {
				fields[key] = s
			}
		default:
			fields[key] = x
		}
	default:
		fields[key] = v.Any()
	}
}

func joinKey(group, key string) string {
	switch {
	case group == "":
		return key
	case key == "":
		return group
	}
	return group + "." + key
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func textValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
