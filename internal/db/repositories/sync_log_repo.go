package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const defaultSyncLogLimit = 50

type SyncLogRepo struct {
	db *sqlx.DB
}

func NewSyncLogRepo(db *sqlx.DB) *SyncLogRepo {
	return &SyncLogRepo{db}
}

// EnsureSchema creates the sync_logs table if it does not exist
func (r *SyncLogRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, constants.CreateSyncLogsTable); err != nil {
		return fmt.Errorf("failed to create sync_logs table: %w", err)
	}
	return nil
}

// Insert appends an entry, filling in the ID and timestamp when missing
func (r *SyncLogRepo) Insert(ctx context.Context, entry *entities.SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	if _, err := r.db.NamedExecContext(ctx, constants.InsertSyncLog, entry); err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// List returns one page of entries matching the filter, newest first, and the total match count
func (r *SyncLogRepo) List(ctx context.Context, filter dtos.SyncLogFilter) ([]entities.SyncLogEntry, int64, error) {
	where, args := buildSyncLogWhere(filter)

	var total int64
	countQuery := r.db.Rebind(constants.CountSyncLogs + where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count sync logs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSyncLogLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.Rebind(constants.SelectSyncLogs + where + " ORDER BY logged_at DESC LIMIT ? OFFSET ?")
	pageArgs := append(append([]interface{}{}, args...), limit, offset)

	entries := []entities.SyncLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list sync logs: %w", err)
	}

	return entries, total, nil
}

// buildSyncLogWhere turns a filter into a WHERE clause with '?' placeholders
func buildSyncLogWhere(filter dtos.SyncLogFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := containsPattern(s)
		clauses = append(clauses, `(LOWER(provider_name) LIKE ? ESCAPE '\' OR LOWER(operation) LIKE ? ESCAPE '\' OR LOWER(COALESCE(error_message, '')) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if isSet(filter.ProviderID) {
		clauses = append(clauses, "provider_id = ?")
		args = append(args, filter.ProviderID)
	}
	if isSet(filter.Operation) {
		clauses = append(clauses, "operation = ?")
		args = append(args, filter.Operation)
	}
	if isSet(filter.Status) {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		clauses = append(clauses, "logged_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		clauses = append(clauses, "logged_at <= ?")
		args = append(args, filter.To.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isSet(v string) bool {
	return v != "" && v != constants.FilterAll
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern lowercases s and wraps it for a substring LIKE match with
// backslash as the escape character
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
