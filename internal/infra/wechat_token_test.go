package infra

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/scribe/internal/metrics"
	"github.com/Vovarama1992/scribe/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

type tokenServer struct {
	mu    sync.Mutex
	calls int
	body  string
}

func (s *tokenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls++
		body := s.body
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func (s *tokenServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *tokenServer) setBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

func newTestTokenManager(srvURL string, now func() time.Time) *TokenManager {
	return &TokenManager{
		appID:    "app",
		secret:   "secret",
		client:   http.DefaultClient,
		endpoint: srvURL,
		now:      now,
		met:      metrics.New(prometheus.NewRegistry()),
	}
}

func TestTokenCachedWhileValid(t *testing.T) {
	ts := &tokenServer{body: `{"access_token":"tok-1","expires_in":7200}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestTokenManager(srv.URL, func() time.Time { return base })

	for i := 0; i < 3; i++ {
		tok, err := m.Token(context.Background())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if tok != "tok-1" {
			t.Fatalf("call %d: got token %q, want tok-1", i, tok)
		}
	}

	if got := ts.callCount(); got != 1 {
		t.Fatalf("token endpoint hit %d times, want 1", got)
	}
}

func TestTokenRefreshAtMargin(t *testing.T) {
	ts := &tokenServer{body: `{"access_token":"tok-1","expires_in":7200}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m := newTestTokenManager(srv.URL, func() time.Time { return now })

	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// one second inside the margin: cache still counts as valid
	now = base.Add(7200*time.Second - refreshMargin - time.Second)
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if got := ts.callCount(); got != 1 {
		t.Fatalf("endpoint hit %d times before margin, want 1", got)
	}

	// exactly at the margin boundary: refresh
	now = base.Add(7200*time.Second - refreshMargin)
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("refresh call: %v", err)
	}
	if got := ts.callCount(); got != 2 {
		t.Fatalf("endpoint hit %d times at margin, want 2", got)
	}
}

func TestTokenDefaultExpiry(t *testing.T) {
	// response omits expires_in → 7200s assumed
	ts := &tokenServer{body: `{"access_token":"tok-1"}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m := newTestTokenManager(srv.URL, func() time.Time { return now })

	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	now = base.Add(6899 * time.Second)
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if got := ts.callCount(); got != 1 {
		t.Fatalf("endpoint hit %d times, want 1", got)
	}

	now = base.Add(6900 * time.Second)
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("refresh call: %v", err)
	}
	if got := ts.callCount(); got != 2 {
		t.Fatalf("endpoint hit %d times, want 2", got)
	}
}

func TestTokenFetchErrorKeepsStaleCache(t *testing.T) {
	ts := &tokenServer{body: `{"access_token":"tok-1","expires_in":7200}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m := newTestTokenManager(srv.URL, func() time.Time { return now })

	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	now = base.Add(8000 * time.Second)
	ts.setBody(`{"errcode":40001,"errmsg":"invalid credential"}`)

	_, err := m.Token(context.Background())
	var authErr *ports.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("got %v, want *ports.AuthError", err)
	}

	// failure must not wipe the stale state
	m.mu.Lock()
	stale := m.token
	m.mu.Unlock()
	if stale != "tok-1" {
		t.Fatalf("stale token cleared, got %q", stale)
	}

	// endpoint recovers → next call succeeds with the fresh token
	ts.setBody(`{"access_token":"tok-2","expires_in":7200}`)
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("recovery fetch: %v", err)
	}
	if tok != "tok-2" {
		t.Fatalf("got token %q, want tok-2", tok)
	}
}

func TestTokenErrorPayloadWithoutMessage(t *testing.T) {
	ts := &tokenServer{body: `{}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	m := newTestTokenManager(srv.URL, time.Now)

	_, err := m.Token(context.Background())
	var authErr *ports.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("got %v, want *ports.AuthError", err)
	}
}

func TestTokenConcurrentRefreshSingleFetch(t *testing.T) {
	ts := &tokenServer{body: `{"access_token":"tok-1","expires_in":7200}`}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	m := newTestTokenManager(srv.URL, time.Now)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Token(context.Background()); err != nil {
				t.Errorf("concurrent fetch: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ts.callCount(); got != 1 {
		t.Fatalf("endpoint hit %d times under concurrency, want 1", got)
	}
}
