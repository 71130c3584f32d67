package ports

import (
	"context"

	"github.com/Vovarama1992/scribe/internal/models"
)

type TranscriptEvent struct {
	RoomID       string
	TranscriptID int
	Status       string
	Text         string
}

type RecognizeProcessor interface {
	// Start registers a pending transcript and processes the file in the
	// background; progress is reported through Events.
	Start(ctx context.Context, inputPath, sourceName, lang, roomID string) (*models.Transcript, error)

	// Recognize runs the full pipeline synchronously: encode → submit → poll.
	Recognize(ctx context.Context, inputPath, lang string) (string, error)

	Events() <-chan TranscriptEvent
}
