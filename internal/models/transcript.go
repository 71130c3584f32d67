package models

import "time"

type Transcript struct {
	ID         int       `db:"id"`
	SourceName string    `db:"source_name"` // original upload filename
	VoiceID    string    `db:"voice_id"`    // client-generated id the platform echoes back
	Lang       string    `db:"lang"`
	Status     string    `db:"status"` // "pending", "done" или "failed"
	Text       string    `db:"text"`
	Error      string    `db:"error"`
	CreatedAt  time.Time `db:"created_at"`
}
