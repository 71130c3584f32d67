package infra

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/scribe/internal/models"
	"github.com/Vovarama1992/scribe/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresTranscriptRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTranscriptRepo(pool *pgxpool.Pool) ports.TranscriptRepository {
	return &PostgresTranscriptRepo{pool: pool}
}

func (r *PostgresTranscriptRepo) InsertPending(ctx context.Context, t *models.Transcript) (*models.Transcript, error) {
	query := `
		INSERT INTO transcript (source_name, lang, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at
	`
	row := r.pool.QueryRow(ctx, query, t.SourceName, t.Lang)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert pending transcript: %w", err)
	}
	t.Status = "pending"
	return t, nil
}

func (r *PostgresTranscriptRepo) Complete(ctx context.Context, id int, voiceID, text string) error {
	query := `
		UPDATE transcript
		SET status = 'done', voice_id = $1, text = $2
		WHERE id = $3
	`
	if _, err := r.pool.Exec(ctx, query, voiceID, text, id); err != nil {
		return fmt.Errorf("complete transcript: %w", err)
	}
	return nil
}

func (r *PostgresTranscriptRepo) Fail(ctx context.Context, id int, voiceID, reason string) error {
	query := `
		UPDATE transcript
		SET status = 'failed', voice_id = $1, error = $2
		WHERE id = $3
	`
	if _, err := r.pool.Exec(ctx, query, voiceID, reason, id); err != nil {
		return fmt.Errorf("fail transcript: %w", err)
	}
	return nil
}

func (r *PostgresTranscriptRepo) GetByID(ctx context.Context, id int) (*models.Transcript, error) {
	query := `
		SELECT id, source_name, COALESCE(voice_id, ''), lang, status,
		       COALESCE(text, ''), COALESCE(error, ''), created_at
		FROM transcript
		WHERE id = $1
	`

	var t models.Transcript

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.SourceName,
		&t.VoiceID,
		&t.Lang,
		&t.Status,
		&t.Text,
		&t.Error,
		&t.CreatedAt,
	)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("get transcript by id: %w", err)
	}

	return &t, nil
}
