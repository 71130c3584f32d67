package stations

import (
	"context"
	"log"

	"github.com/Vovarama1992/scribe/internal/ports"
)

type S3PollResult struct {
	platform ports.VoicePlatform
}

func NewS3PollResult(platform ports.VoicePlatform) *S3PollResult {
	return &S3PollResult{platform: platform}
}

func (s *S3PollResult) Run(ctx context.Context, voiceID, lang string) (string, error) {
	log.Printf("[S3][START] voice_id=%s", voiceID)

	text, err := s.platform.Poll(ctx, voiceID, lang)
	if err != nil {
		log.Printf("[S3][ERR] voice_id=%s err=%v", voiceID, err)
		return "", err
	}

	log.Printf("[S3][OK] voice_id=%s chars=%d", voiceID, len(text))
	return text, nil
}
