package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/scribe/internal/config"
	"github.com/Vovarama1992/scribe/internal/metrics"
	"github.com/Vovarama1992/scribe/internal/ports"
	"github.com/google/uuid"
)

const (
	submitEndpoint = "https://api.weixin.qq.com/cgi-bin/media/voice/addvoicetorecofortext"
	queryEndpoint  = "https://api.weixin.qq.com/cgi-bin/media/voice/queryrecoresultfortext"

	// the only codec the recognition API accepts
	audioFormat = "mp3"
)

// WeChatClient implements ports.VoicePlatform against the async
// recognition endpoint pair: submit once, poll until terminal.
type WeChatClient struct {
	tokens *TokenManager
	client *http.Client
	met    *metrics.Metrics

	maxAttempts int
	delay       time.Duration

	submitURL  string
	queryURL   string
	newVoiceID func() string
}

func NewWeChatClient(cfg config.WeChatConfig, tokens *TokenManager, met *metrics.Metrics) ports.VoicePlatform {
	return &WeChatClient{
		tokens:      tokens,
		client:      &http.Client{},
		met:         met,
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.GetDelayDuration(),
		submitURL:   submitEndpoint,
		queryURL:    queryEndpoint,
		newVoiceID:  uuid.NewString,
	}
}

type apiStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Submit uploads the encoded audio with a freshly generated voice id.
// The platform echoes the id, it never originates one, so a zero errcode
// means the locally generated id is the correlation handle from now on.
func (c *WeChatClient) Submit(ctx context.Context, audioPath string, lang string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	voiceID := c.newVoiceID()
	c.met.SubmitRequests.Inc()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("media", filepath.Base(audioPath))
	if err != nil {
		return "", &ports.UploadError{Reason: "build multipart body", Err: err}
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", &ports.UploadError{Reason: "open audio artifact", Err: err}
	}
	_, copyErr := io.Copy(part, f)
	f.Close()
	if copyErr != nil {
		return "", &ports.UploadError{Reason: "read audio artifact", Err: copyErr}
	}
	if err := mw.Close(); err != nil {
		return "", &ports.UploadError{Reason: "finish multipart body", Err: err}
	}

	q := url.Values{}
	q.Set("access_token", token)
	q.Set("format", audioFormat)
	q.Set("voice_id", voiceID)
	q.Set("lang", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL+"?"+q.Encode(), body)
	if err != nil {
		return "", &ports.UploadError{Reason: "build submit request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		c.met.SubmitFailures.Inc()
		return "", &ports.UploadError{Reason: "submit request", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed apiStatus
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.met.SubmitFailures.Inc()
		return "", &ports.UploadError{Reason: "decode submit response", Err: err}
	}
	if parsed.ErrCode != 0 {
		c.met.SubmitFailures.Inc()
		return "", &ports.UploadError{Code: parsed.ErrCode, Reason: parsed.ErrMsg}
	}

	log.Printf("[SUBMIT][OK] voice_id=%s", voiceID)
	return voiceID, nil
}

// Poll drives the query loop: Waiting → Success | PermanentFailure | Exhausted.
// Each attempt waits delay first — the recognizer needs processing time
// after submit, so querying immediately is expected to come back empty.
func (c *WeChatClient) Poll(ctx context.Context, voiceID string, lang string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := sleepCtx(ctx, c.delay); err != nil {
			return "", err
		}

		text, done, err := c.queryOnce(ctx, voiceID, lang)
		if err != nil {
			var permanent *ports.RecognitionError
			if errors.As(err, &permanent) {
				return "", err
			}
			var auth *ports.AuthError
			if errors.As(err, &auth) {
				return "", err
			}

			// transport or parse fault: fold into the retry loop
			lastErr = err
			log.Printf("[POLL][ERR] voice_id=%s attempt=%d/%d err=%v",
				voiceID, attempt, c.maxAttempts, err)
			continue
		}

		if done {
			log.Printf("[POLL][OK] voice_id=%s attempt=%d", voiceID, attempt)
			return text, nil
		}
	}

	return "", &ports.ExhaustedError{Attempts: c.maxAttempts, Err: lastErr}
}

type queryResponse struct {
	// pointer so "result present" and "empty result" stay distinguishable
	Result  *string `json:"result"`
	ErrCode int     `json:"errcode"`
	ErrMsg  string  `json:"errmsg"`
}

// queryOnce issues a single status query. done=true carries the text;
// done=false with nil error means "not ready yet or transient, keep polling".
func (c *WeChatClient) queryOnce(ctx context.Context, voiceID, lang string) (string, bool, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", false, err
	}

	q := url.Values{}
	q.Set("access_token", token)
	q.Set("voice_id", voiceID)
	q.Set("lang", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", false, err
	}

	c.met.PollAttempts.Inc()

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, err
	}

	switch {
	case parsed.Result != nil:
		return *parsed.Result, true, nil
	case parsed.ErrCode != 0 && isTransient(parsed.ErrMsg):
		c.met.PollTransient.Inc()
		log.Printf("[POLL][BUSY] voice_id=%s errmsg=%q", voiceID, parsed.ErrMsg)
		return "", false, nil
	case parsed.ErrCode != 0:
		return "", false, &ports.RecognitionError{Code: parsed.ErrCode, Reason: parsed.ErrMsg}
	default:
		// zero errcode, no result: recognition still running
		return "", false, nil
	}
}

// isTransient decides whether a remote errmsg means "try again later".
// The API exposes no structured retryable flag, so this is a best-effort
// guess on the message text; keep the rule in one place so it can change.
func isTransient(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "busy") || strings.Contains(m, "wait")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
