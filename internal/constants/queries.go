package constants

// Queries are written with '?' placeholders and rebound for the active driver
const (
	CreateSyncLogsTable = `
	CREATE TABLE IF NOT EXISTS sync_logs (
		id                TEXT PRIMARY KEY,
		logged_at         TIMESTAMP NOT NULL,
		provider_id       TEXT NOT NULL,
		provider_name     TEXT NOT NULL,
		operation         TEXT NOT NULL,
		status            TEXT NOT NULL,
		duration_ms       BIGINT NOT NULL DEFAULT 0,
		records_processed BIGINT NOT NULL DEFAULT 0,
		error_message     TEXT
	)
	`

	InsertSyncLog = `
	INSERT INTO sync_logs (id, logged_at, provider_id, provider_name, operation, status, duration_ms, records_processed, error_message)
	VALUES (:id, :logged_at, :provider_id, :provider_name, :operation, :status, :duration_ms, :records_processed, :error_message)
	`

	SelectSyncLogs = `
	SELECT id, logged_at, provider_id, provider_name, operation, status, duration_ms, records_processed, error_message
	FROM sync_logs
	`

	CountSyncLogs = `
	SELECT COUNT(*) FROM sync_logs
	`
)
