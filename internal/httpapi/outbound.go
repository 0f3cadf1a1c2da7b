package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/recallbe/recall/internal/telephony"
)

// OutboundCallRequest asks for a missed-meeting recall call.
type OutboundCallRequest struct {
	telephony.Metadata
	RoomName string `json:"room_name,omitempty"`
}

// Normalize trims whitespace from the request fields.
func (o *OutboundCallRequest) Normalize() {
	o.PhoneNumber = strings.TrimSpace(o.PhoneNumber)
	o.CustomerName = strings.TrimSpace(o.CustomerName)
	o.Date = strings.TrimSpace(o.Date)
	o.Time = strings.TrimSpace(o.Time)
	o.Purpose = strings.TrimSpace(o.Purpose)
	o.SIPTrunkID = strings.TrimSpace(o.SIPTrunkID)
	o.CallerID = strings.TrimSpace(o.CallerID)
	o.RoomName = strings.TrimSpace(o.RoomName)
}

// Validate ensures required fields are present.
func (o *OutboundCallRequest) Validate() error {
	if o.PhoneNumber == "" {
		return errRequiredField("phone_number")
	}
	return nil
}

func registerOutboundRoutes(mux *http.ServeMux, logger *slog.Logger, voice Voice) {
	mux.HandleFunc("/v1/outbound-calls", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if voice.Dispatcher == nil {
			respondError(w, http.StatusNotImplemented, "telephony not configured")
			return
		}

		var payload OutboundCallRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		payload.Normalize()
		if err := payload.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		dispatched, err := voice.Dispatcher.Dispatch(r.Context(), payload.RoomName, payload.Metadata)
		if err != nil {
			if errors.Is(err, telephony.ErrNoPhone) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("outbound dispatch failed", "phone", payload.PhoneNumber, "err", err)
			respondError(w, http.StatusBadGateway, "dispatch failed")
			return
		}

		logger.Info("outbound_call_requested",
			"phone", payload.PhoneNumber,
			"customer", payload.CustomerName,
			"room", dispatched.Room,
		)
		respondJSON(w, http.StatusAccepted, dispatched)
	})
}

func errRequiredField(field string) error {
	return &validationError{field: field}
}

type validationError struct {
	field string
}

func (v *validationError) Error() string {
	return v.field + " is required"
}
