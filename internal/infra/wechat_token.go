package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Vovarama1992/scribe/internal/config"
	"github.com/Vovarama1992/scribe/internal/metrics"
	"github.com/Vovarama1992/scribe/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	tokenEndpoint = "https://api.weixin.qq.com/cgi-bin/token"

	// refresh this long before the platform-reported expiry
	refreshMargin = 300 * time.Second

	// the platform documents 7200s; used when the response omits expires_in
	defaultExpiresIn = 7200
)

// TokenManager caches the platform access token for the whole process.
// Refresh is serialized through singleflight so concurrent requests
// share one fetch instead of racing the token endpoint.
type TokenManager struct {
	appID    string
	secret   string
	client   *http.Client
	endpoint string
	now      func() time.Time
	met      *metrics.Metrics

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewTokenManager(cfg config.WeChatConfig, met *metrics.Metrics) *TokenManager {
	return &TokenManager{
		appID:    cfg.AppID,
		secret:   cfg.AppSecret,
		client:   &http.Client{},
		endpoint: tokenEndpoint,
		now:      time.Now,
		met:      met,
	}
}

// Token returns the cached access token, fetching a fresh one when the
// cache is empty or inside the refresh margin. A failed fetch leaves the
// stale cache in place: the next caller retries from the same state.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(); ok {
		m.met.TokenCacheHits.Inc()
		return tok, nil
	}

	v, err, _ := m.group.Do("access_token", func() (any, error) {
		// another caller may have refreshed while we waited for the flight
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		return m.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt.Add(-refreshMargin)) {
		return m.token, true
	}
	return "", false
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

func (m *TokenManager) fetch(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", m.appID)
	q.Set("secret", m.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", &ports.AuthError{Reason: "build token request", Err: err}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &ports.AuthError{Reason: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ports.AuthError{Reason: "decode token response", Err: err}
	}

	if parsed.AccessToken == "" {
		msg := parsed.ErrMsg
		if msg == "" {
			msg = "unknown error"
		}
		if parsed.ErrCode != 0 {
			msg = fmt.Sprintf("errcode=%d %s", parsed.ErrCode, msg)
		}
		return "", &ports.AuthError{Reason: msg}
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}

	m.mu.Lock()
	m.token = parsed.AccessToken
	m.expiresAt = m.now().Add(time.Duration(expiresIn) * time.Second)
	m.mu.Unlock()

	m.met.TokenRefreshes.Inc()
	log.Printf("[TOKEN][OK] expires_in=%ds", expiresIn)
	return parsed.AccessToken, nil
}
