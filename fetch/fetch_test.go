package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/memocache/observe"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	})
	mux.HandleFunc("/status/{code}", func(w http.ResponseWriter, r *http.Request) {
		var code int
		_, _ = fmt.Sscanf(r.PathValue("code"), "%d", &code)
		w.WriteHeader(code)
	})
	mux.HandleFunc("/delay", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	srv := newServer(t)
	client := &Client{Timeout: 100 * time.Millisecond}

	tests := []struct {
		name       string
		path       string
		wantKind   Kind
		wantErr    error
		wantStatus int
	}{
		{name: "ok", path: "/ok"},
		{name: "not found", path: "/status/404", wantKind: KindClient, wantErr: ErrClient, wantStatus: 404},
		{name: "server error", path: "/status/500", wantKind: KindClient, wantErr: ErrClient, wantStatus: 500},
		{name: "timeout", path: "/delay", wantKind: KindTimeout, wantErr: ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := client.Fetch(context.Background(), srv.URL+tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if content.Text() != "<html>ok</html>" || content.ContentType != "text/html" {
					t.Errorf("unexpected content: %+v", content)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("KindOf = %v, want %v", KindOf(err), tt.wantKind)
			}
			var fe *Error
			if !errors.As(err, &fe) || fe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %v, want %d", fe, tt.wantStatus)
			}
		})
	}
}

func TestClient_ConnectionRefusedIsClientError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := (&Client{Timeout: time.Second}).Fetch(context.Background(), addr)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("expected ErrClient, got %v", err)
	}
}

func TestClient_MalformedURLIsUnexpected(t *testing.T) {
	_, err := (&Client{}).Fetch(context.Background(), "http://[::1")
	if !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
}

func TestClient_MaxBodyBytes(t *testing.T) {
	srv := newServer(t)
	content, err := (&Client{MaxBodyBytes: 6}).Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text() != "<html>" {
		t.Errorf("body = %q, want truncated", content.Text())
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	client := &Client{
		Retry:  RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond},
		Logger: observe.NewLoggerWithWriter("warn", &logs),
	}

	content, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text() != "recovered" || calls.Load() != 3 {
		t.Errorf("content=%q calls=%d", content.Text(), calls.Load())
	}
	if strings.Count(logs.String(), "fetch retry") != 2 {
		t.Errorf("expected 2 retry log lines, got:\n%s", logs.String())
	}
}

func TestClient_DoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := &Client{Retry: RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond}}
	if _, err := client.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrClient) {
		t.Fatalf("expected ErrClient, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_BreakerOpensForFailingHost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &Client{Breaker: NewBreaker(BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})}
	ctx := context.Background()

	for range 2 {
		_, _ = client.Fetch(ctx, srv.URL)
	}
	_, err := client.Fetch(ctx, srv.URL)
	if !errors.Is(err, ErrCircuitOpen) || !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{URL: "http://x", Kind: KindTimeout, Err: errors.New("deadline")}
	if got := err.Error(); got != "fetch http://x: timeout error: deadline" {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("other")) != KindUnexpected {
		t.Error("non-fetch errors should be unexpected")
	}
}
