package entities

import "time"

type SyncLogEntry struct {
	ID               string    `db:"id" json:"id"`                               // UUID
	Timestamp        time.Time `db:"logged_at" json:"timestamp"`                 // timestamp
	ProviderID       string    `db:"provider_id" json:"provider_id"`             // UUID of connected provider
	ProviderName     string    `db:"provider_name" json:"provider"`              // varchar(255)
	Operation        string    `db:"operation" json:"operation"`                 // sync | test | activate | export
	Status           string    `db:"status" json:"status"`                       // success | error | warning | syncing
	DurationMs       int64     `db:"duration_ms" json:"duration_ms"`             // bigint
	RecordsProcessed int64     `db:"records_processed" json:"records_processed"` // bigint
	ErrorMessage     *string   `db:"error_message" json:"error_message,omitempty"`
}
