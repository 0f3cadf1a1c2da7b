package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
)

func registerHistoryRoutes(mux *http.ServeMux, logger *slog.Logger, service callhistory.Service) {
	mux.HandleFunc("/v1/call-history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		offset, limit, msg := pagination(r)
		if msg != "" {
			respondError(w, http.StatusBadRequest, msg)
			return
		}

		records, err := service.List(r.Context(), callhistory.Filter{
			PhoneNumber: strings.TrimSpace(r.URL.Query().Get("phone")),
			Offset:      offset,
			Limit:       limit,
		})
		if err != nil {
			if errors.Is(err, callhistory.ErrNotImplemented) {
				respondError(w, http.StatusNotImplemented, "call history storage not configured")
				return
			}
			logger.Error("list call history failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"data":  records,
			"count": len(records),
		})
	})

	mux.HandleFunc("/v1/call-history/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		callID := strings.TrimPrefix(r.URL.Path, "/v1/call-history/")
		if callID == "" {
			respondError(w, http.StatusBadRequest, "missing call id")
			return
		}

		record, err := service.Get(r.Context(), callID)
		if err != nil {
			switch {
			case errors.Is(err, callhistory.ErrNotImplemented):
				respondError(w, http.StatusNotImplemented, "call history storage not configured")
			case errors.Is(err, callhistory.ErrNotFound):
				respondError(w, http.StatusNotFound, "call history record not found")
			default:
				logger.Error("get call history failed", "err", err)
				respondError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		respondJSON(w, http.StatusOK, record)
	})
}

func registerMessageRoutes(mux *http.ServeMux, logger *slog.Logger, service messages.Service) {
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		offset, limit, msg := pagination(r)
		if msg != "" {
			respondError(w, http.StatusBadRequest, msg)
			return
		}

		results, err := service.List(r.Context(), offset, limit)
		if err != nil {
			if errors.Is(err, messages.ErrNotImplemented) {
				respondError(w, http.StatusNotImplemented, "message storage not configured")
				return
			}
			logger.Error("list messages failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"data":  results,
			"count": len(results),
		})
	})
}
