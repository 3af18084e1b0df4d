package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(nil) {
		t.Fatal("nil error must not be retried")
	}
	if !ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatal("dial errors should be retried")
	}
	if !ShouldRetry(timeoutErr{}) {
		t.Fatal("timeouts should be retried")
	}
	if !ShouldRetry(&url.Error{Op: "Post", URL: "https://api.imgbb.com", Err: syscall.ECONNRESET}) {
		t.Fatal("reset connections should be retried")
	}
	if ShouldRetry(errors.New("bad request")) {
		t.Fatal("plain errors must not be retried")
	}
}

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	calls := 0
	rt := &RetryTransport{
		Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return nil, timeoutErr{}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://example.invalid", strings.NewReader("payload"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent")
	rt := &RetryTransport{
		Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return nil, permanent
		}),
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want permanent", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
