package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/recallbe/recall/internal/agent"
	"github.com/recallbe/recall/internal/domain"
	"github.com/recallbe/recall/internal/telephony"
)

// Dialer places an answered outbound call into a room.
type Dialer interface {
	Dial(ctx context.Context, room string, call telephony.Call) (telephony.DialResult, error)
}

// Dispatcher hands an outbound call to the agent worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, room string, md telephony.Metadata) (telephony.Dispatched, error)
}

// Voice is the live call surface. Dialer and Dispatcher are nil when
// telephony is not configured.
type Voice struct {
	Sessions   *agent.Manager
	Dialer     Dialer
	Dispatcher Dispatcher
	Defaults   telephony.Defaults
}

// Register attaches API routes to the provided mux.
func Register(mux *http.ServeMux, logger *slog.Logger, domainServices domain.Container, voice Voice) {
	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"server":  "recall-be",
			"version": "v1",
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to write ping response", "err", err)
		}
	})

	registerSessionRoutes(mux, logger, voice)
	registerOutboundRoutes(mux, logger, voice)
	registerHistoryRoutes(mux, logger, domainServices.History)
	registerMessageRoutes(mux, logger, domainServices.Messages)
	registerCalendarRoutes(mux, logger, domainServices.Scheduling)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// pagination reads offset and limit query parameters.
func pagination(r *http.Request) (offset, limit int, msg string) {
	query := r.URL.Query()
	offset, limit = 0, 50
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, "invalid offset parameter"
		}
		offset = parsed
	}
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, "invalid limit parameter"
		}
		limit = parsed
	}
	return offset, limit, ""
}
