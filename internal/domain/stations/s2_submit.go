package stations

import (
	"context"
	"log"
	"path/filepath"

	"github.com/Vovarama1992/scribe/internal/ports"
)

type S2Submit struct {
	platform ports.VoicePlatform
}

func NewS2Submit(platform ports.VoicePlatform) *S2Submit {
	return &S2Submit{platform: platform}
}

func (s *S2Submit) Run(ctx context.Context, audioPath, lang string) (string, error) {
	log.Printf("[S2][START] file=%s lang=%s", filepath.Base(audioPath), lang)

	voiceID, err := s.platform.Submit(ctx, audioPath, lang)
	if err != nil {
		log.Printf("[S2][ERR] err=%v", err)
		return "", err
	}

	log.Printf("[S2][OK] voice_id=%s", voiceID)
	return voiceID, nil
}
