package ports

import (
	"context"
	"fmt"
)

// VoicePlatform is the remote asynchronous recognition API:
// one submit call, then repeated status queries until a terminal answer.
type VoicePlatform interface {
	// Submit uploads the encoded audio and returns the voice id
	// that links later polls to this upload.
	Submit(ctx context.Context, audioPath string, lang string) (string, error)

	// Poll queries the recognition status for voiceID until the text is
	// ready, the platform rejects the request, or the attempt budget runs out.
	Poll(ctx context.Context, voiceID string, lang string) (string, error)
}

// AuthError — the token endpoint is unreachable or returned an error payload.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// UploadError — submit was rejected by transport or by a non-zero errcode.
// Submission is never retried internally.
type UploadError struct {
	Code   int
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("upload: errcode=%d %s", e.Code, e.Reason)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RecognitionError — the platform explicitly rejected the request.
// Terminal: further polling for the same voice id is pointless.
type RecognitionError struct {
	Code   int
	Reason string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition rejected: errcode=%d %s", e.Code, e.Reason)
}

// ExhaustedError — the attempt budget was spent without a terminal answer.
// Distinguishable from RecognitionError so the caller may re-run the
// whole pipeline later.
type ExhaustedError struct {
	Attempts int
	Err      error // last transport error, if any
}

func (e *ExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no result after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("no result after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
