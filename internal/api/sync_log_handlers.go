package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/models/entities"
)

// SyncLogLister is the sync log surface used by the handlers
type SyncLogLister interface {
	List(ctx context.Context, filter dtos.SyncLogFilter) (*dtos.Page[entities.SyncLogEntry], error)
}

// ListSyncLogsHandler handles GET /api/v1/logs
//
// Query: search, provider, operation, status, from, to (RFC3339), limit, offset
func ListSyncLogsHandler(logs SyncLogLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		filter, detail := parseSyncLogFilter(r.URL.Query())
		if detail != "" {
			common.RespondErrorCode(w, initTime, constants.ErrCodeInvalidRequest, detail, http.StatusBadRequest)
			return
		}

		page, err := logs.List(r.Context(), filter)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Sync logs fetched", page)
	}
}

// parseSyncLogFilter returns the filter, or a non-empty detail describing a bad parameter
func parseSyncLogFilter(q url.Values) (dtos.SyncLogFilter, string) {
	filter := dtos.SyncLogFilter{
		Search:     q.Get("search"),
		ProviderID: q.Get("provider"),
		Operation:  q.Get("operation"),
		Status:     q.Get("status"),
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, p.name + " must be an RFC3339 timestamp"
		}
		*p.dst = &t
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, "limit must be a non-negative integer"
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, "offset must be a non-negative integer"
		}
		filter.Offset = n
	}

	return filter, ""
}
