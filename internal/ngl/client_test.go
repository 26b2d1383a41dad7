package ngl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/itsmrshow/nglsend/internal/logging"
)

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Level: "disabled", Format: "json"})
}

// newTestClient points a client at a test server with fast retry waits.
func newTestClient(serverURL string) *Client {
	c := NewClient(quietLogger())
	c.submitURL = serverURL + "/api/submit"
	c.origin = serverURL
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	return c
}

func TestSendSuccess(t *testing.T) {
	var gotReq *http.Request
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotReq = r.Clone(context.Background())
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outcome := c.Send(context.Background(), "someone", "hello there")

	if !outcome.Success || outcome.Reason != ReasonSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}

	if gotReq.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", gotReq.Method)
	}
	if got := gotReq.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Errorf("missing XHR marker, got %q", got)
	}
	if got := gotReq.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded; charset=UTF-8" {
		t.Errorf("unexpected content type %q", got)
	}
	if got := gotReq.Header.Get("Referer"); got != srv.URL+"/someone" {
		t.Errorf("referer should reflect the handle, got %q", got)
	}
	if got := gotReq.Header.Get("Origin"); got != srv.URL {
		t.Errorf("unexpected origin %q", got)
	}
	if got := gotReq.Header.Get("User-Agent"); got == "" {
		t.Error("user agent should be set")
	}

	if got := gotForm["username"]; len(got) != 1 || got[0] != "someone" {
		t.Errorf("unexpected username field: %v", got)
	}
	if got := gotForm["question"]; len(got) != 1 || got[0] != "hello there" {
		t.Errorf("unexpected question field: %v", got)
	}
	for _, field := range []string{"gameSlug", "referrer"} {
		if _, ok := gotForm[field]; !ok {
			t.Errorf("form is missing %s", field)
		}
	}
	if _, err := uuid.Parse(gotForm["deviceId"][0]); err != nil {
		t.Errorf("deviceId is not a UUID: %v", err)
	}
}

func TestSendFreshDeviceIDPerAttempt(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		ids = append(ids, r.PostForm.Get("deviceId"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.Send(context.Background(), "someone", "hi")
	c.Send(context.Background(), "someone", "hi")

	if len(ids) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ids))
	}
	if ids[0] == ids[1] {
		t.Errorf("device ID was reused across attempts: %s", ids[0])
	}
}

func TestSendRateLimitedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outcome := c.Send(context.Background(), "someone", "hi")

	if outcome.Success || outcome.Reason != ReasonRateLimited {
		t.Fatalf("expected rate-limited outcome, got %+v", outcome)
	}
	// 429 is an application-level condition, never retried below the loop.
	if got := calls.Load(); got != 1 {
		t.Errorf("429 should not be retried at the connection level, got %d requests", got)
	}
}

func TestSendRetriesTransientServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outcome := c.Send(context.Background(), "someone", "hi")

	if !outcome.Success {
		t.Fatalf("expected success after transparent retries, got %+v", outcome)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestSendSurfacesStatusAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outcome := c.Send(context.Background(), "someone", "hi")

	if outcome.Success || outcome.Reason != ReasonHTTPStatus || outcome.StatusCode != 500 {
		t.Fatalf("expected HTTP status outcome for 500, got %+v", outcome)
	}
	// Initial attempt plus retryMax connection-level retries.
	if got := calls.Load(); got != int32(retryMax+1) {
		t.Errorf("expected %d attempts, got %d", retryMax+1, got)
	}
}

func TestSendUnexpectedStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outcome := c.Send(context.Background(), "someone", "hi")

	if outcome.Reason != ReasonHTTPStatus || outcome.StatusCode != 404 {
		t.Fatalf("expected HTTP status outcome for 404, got %+v", outcome)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("404 should not be retried, got %d requests", got)
	}
}

func TestSendConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := srv.URL
	srv.Close()

	c := newTestClient(serverURL)
	outcome := c.Send(context.Background(), "someone", "hi")

	if outcome.Success || outcome.Reason != ReasonConnectionError {
		t.Fatalf("expected connection error outcome, got %+v", outcome)
	}
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.http.HTTPClient.Timeout = 20 * time.Millisecond

	outcome := c.Send(context.Background(), "someone", "hi")
	if outcome.Success || outcome.Reason != ReasonTimeout {
		t.Fatalf("expected timeout outcome, got %+v", outcome)
	}
}

func TestOutcomeStrings(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Accepted(), "success"},
		{RateLimited(), "rate limited (429)"},
		{TimedOut(), "request timeout"},
		{ConnectionFailed(), "connection error"},
		{UnexpectedStatus(502), "status code: 502"},
		{RequestError("boom"), "request error: boom"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome.String() = %q, want %q", got, tt.want)
		}
	}
}
