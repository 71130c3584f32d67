package ports

import (
	"context"

	"github.com/Vovarama1992/scribe/internal/models"
)

type TranscriptRepository interface {
	InsertPending(ctx context.Context, t *models.Transcript) (*models.Transcript, error)
	Complete(ctx context.Context, id int, voiceID, text string) error
	Fail(ctx context.Context, id int, voiceID, reason string) error
	GetByID(ctx context.Context, id int) (*models.Transcript, error)
}
