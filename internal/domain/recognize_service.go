package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Vovarama1992/scribe/internal/domain/stations"
	"github.com/Vovarama1992/scribe/internal/metrics"
	"github.com/Vovarama1992/scribe/internal/models"
	"github.com/Vovarama1992/scribe/internal/ports"
)

// платформа принимает максимум 1 МиБ; сверх лимита только предупреждаем,
// отказ остаётся за самой платформой
const maxVoiceBytes = 1 << 20

type RecognizeService struct {
	repo ports.TranscriptRepository
	enc  ports.Encoder
	s2   *stations.S2Submit
	s3   *stations.S3PollResult
	met  *metrics.Metrics

	events chan ports.TranscriptEvent
}

func NewRecognizeService(
	repo ports.TranscriptRepository,
	enc ports.Encoder,
	platform ports.VoicePlatform,
	met *metrics.Metrics,
) *RecognizeService {
	return &RecognizeService{
		repo:   repo,
		enc:    enc,
		s2:     stations.NewS2Submit(platform),
		s3:     stations.NewS3PollResult(platform),
		met:    met,
		events: make(chan ports.TranscriptEvent, 100),
	}
}

func (s *RecognizeService) Events() <-chan ports.TranscriptEvent { return s.events }

// ========================================================================
// START
// ========================================================================
func (s *RecognizeService) Start(
	ctx context.Context,
	inputPath string,
	sourceName string,
	lang string,
	roomID string,
) (*models.Transcript, error) {

	t, err := s.repo.InsertPending(ctx, &models.Transcript{
		SourceName: sourceName,
		Lang:       lang,
	})
	if err != nil {
		return nil, fmt.Errorf("insert pending transcript: %w", err)
	}

	log.Printf("[START] transcript=%d source=%s room=%s", t.ID, sourceName, roomID)

	go s.process(ctx, t, inputPath, roomID)
	return t, nil
}

func (s *RecognizeService) process(ctx context.Context, t *models.Transcript, inputPath, roomID string) {
	// uploaded original is ours too, gone no matter the outcome
	defer func() {
		if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[PIPE][CLEANUP-ERR] path=%s err=%v", inputPath, err)
		}
	}()

	text, voiceID, err := s.recognize(ctx, inputPath, t.Lang)
	if err != nil {
		log.Printf("[PIPE][FAIL] transcript=%d err=%v", t.ID, err)
		if dbErr := s.repo.Fail(ctx, t.ID, voiceID, err.Error()); dbErr != nil {
			log.Printf("[DB][FAIL] transcript=%d err=%v", t.ID, dbErr)
		}
		s.events <- ports.TranscriptEvent{
			RoomID:       roomID,
			TranscriptID: t.ID,
			Status:       "failed",
		}
		return
	}

	if err := s.repo.Complete(ctx, t.ID, voiceID, text); err != nil {
		log.Printf("[DB][FAIL] transcript=%d err=%v", t.ID, err)
	}

	s.events <- ports.TranscriptEvent{
		RoomID:       roomID,
		TranscriptID: t.ID,
		Status:       "done",
		Text:         text,
	}

	log.Printf("[DONE] transcript=%d chars=%d", t.ID, len(text))
}

// ========================================================================
// PIPELINE: encode → submit → poll
// ========================================================================
func (s *RecognizeService) Recognize(ctx context.Context, inputPath, lang string) (string, error) {
	text, _, err := s.recognize(ctx, inputPath, lang)
	return text, err
}

func (s *RecognizeService) recognize(ctx context.Context, inputPath, lang string) (string, string, error) {
	start := time.Now()
	defer func() {
		s.met.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	artifact, size, err := s.enc.Encode(ctx, inputPath)
	if err != nil {
		return "", "", fmt.Errorf("encode: %w", err)
	}

	// the encoded artifact is transient: it disappears on every exit path
	defer func() {
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			log.Printf("[PIPE][CLEANUP-ERR] path=%s err=%v", artifact, err)
		}
	}()

	if size > maxVoiceBytes {
		log.Printf("[PIPE][WARN] artifact=%s bytes=%d exceeds 1MiB, platform may reject it",
			artifact, size)
	}

	voiceID, err := s.s2.Run(ctx, artifact, lang)
	if err != nil {
		return "", "", err
	}

	text, err := s.s3.Run(ctx, voiceID, lang)
	if err != nil {
		s.countOutcome(err)
		return "", voiceID, err
	}

	s.met.RecognizeSuccess.Inc()
	return text, voiceID, nil
}

func (s *RecognizeService) countOutcome(err error) {
	var permanent *ports.RecognitionError
	if errors.As(err, &permanent) {
		s.met.RecognizeRejected.Inc()
		return
	}
	var exhausted *ports.ExhaustedError
	if errors.As(err, &exhausted) {
		s.met.RecognizeGaveUp.Inc()
	}
}
