package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

type slotView struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Formatted string    `json:"formatted"`
}

type busyView struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
}

func registerCalendarRoutes(mux *http.ServeMux, logger *slog.Logger, service scheduling.Service) {
	mux.HandleFunc("/v1/calendar/availability", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		query := r.URL.Query()
		date, clock := strings.TrimSpace(query.Get("date")), strings.TrimSpace(query.Get("time"))
		if date == "" || clock == "" {
			respondError(w, http.StatusBadRequest, "date and time are required")
			return
		}

		start, err := scheduling.ParseDateTime(date, clock, service.Now(), service.Profile().Loc())
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp := map[string]any{
			"start":     start,
			"formatted": start.Format(scheduling.SlotLayout),
		}
		free, err := service.CheckBookable(r.Context(), start)
		switch {
		case errors.Is(err, scheduling.ErrClosedDay):
			resp["available"], resp["reason"] = false, "closed"
		case errors.Is(err, scheduling.ErrOutsideHours):
			resp["available"], resp["reason"] = false, "outside_hours"
		case err != nil:
			respondSchedulingError(w, logger, "availability check failed", err)
			return
		case free:
			resp["available"] = true
		default:
			resp["available"], resp["reason"] = false, "booked"
		}
		respondJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/v1/calendar/slots", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		query := r.URL.Query()

		from := service.Now()
		if v := strings.TrimSpace(query.Get("from")); v != "" {
			day, err := scheduling.ParseDate(v, from, service.Profile().Loc())
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			from = day
		}
		count := scheduling.DefaultSlotCount
		if v := query.Get("count"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				respondError(w, http.StatusBadRequest, "invalid count parameter")
				return
			}
			count = parsed
		}

		slots, err := service.NextAvailableSlots(r.Context(), from, count)
		if err != nil {
			respondSchedulingError(w, logger, "slot search failed", err)
			return
		}
		views := make([]slotView, 0, len(slots))
		for _, s := range slots {
			views = append(views, slotView{Start: s.Start, End: s.End, Formatted: s.Formatted()})
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"data":  views,
			"count": len(views),
		})
	})

	mux.HandleFunc("/v1/calendar/busy", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			respondError(w, http.StatusBadRequest, "date is required")
			return
		}
		day, err := scheduling.ParseDate(date, service.Now(), service.Profile().Loc())
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		events, err := service.BusyPeriods(r.Context(), day)
		if err != nil {
			respondSchedulingError(w, logger, "busy lookup failed", err)
			return
		}
		views := make([]busyView, 0, len(events))
		for _, e := range events {
			views = append(views, busyView{Summary: e.Summary, Start: e.Start, End: e.End, AllDay: e.AllDay})
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"date":  day.Format("2006-01-02"),
			"data":  views,
			"count": len(views),
		})
	})
}

func respondSchedulingError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, scheduling.ErrNotConfigured):
		respondError(w, http.StatusNotImplemented, "calendar not configured")
	case errors.Is(err, scheduling.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(msg, "err", err)
		respondError(w, http.StatusBadGateway, "calendar unavailable")
	}
}
