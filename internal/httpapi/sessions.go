package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"github.com/recallbe/recall/internal/agent"
	"github.com/recallbe/recall/internal/domain/callerid"
	"github.com/recallbe/recall/internal/telephony"
)

// InboundRequest opens a receptionist session for a room.
type InboundRequest struct {
	RoomName     string                 `json:"room_name"`
	Participants []callerid.Participant `json:"participants"`
}

// OutboundRequest opens a recall session. Metadata is either a JSON object
// or the job metadata string as dispatched.
type OutboundRequest struct {
	RoomName string          `json:"room_name"`
	Metadata json.RawMessage `json:"metadata"`
	// SkipDial starts the session without placing the SIP call.
	SkipDial bool `json:"skip_dial,omitempty"`
}

// TurnRequest carries one caller utterance.
type TurnRequest struct {
	Text string `json:"text"`
}

type sessionView struct {
	ID           string   `json:"session_id"`
	Kind         string   `json:"kind"`
	RoomName     string   `json:"room_name"`
	CallerPhone  string   `json:"caller_phone,omitempty"`
	CallerSource string   `json:"caller_source,omitempty"`
	Greeting     string   `json:"greeting,omitempty"`
	Tools        []string `json:"tools"`
	Ended        bool     `json:"ended"`
	Notes        []string `json:"notes,omitempty"`

	Dial *telephony.DialResult `json:"dial,omitempty"`
}

func viewOf(sess *agent.Session) sessionView {
	return sessionView{
		ID:          sess.ID,
		Kind:        string(sess.Kind),
		RoomName:    sess.Room,
		CallerPhone: sess.CallerPhone,
		Tools:       sess.ToolNames(),
		Ended:       sess.Ended(),
		Notes:       sess.Notes(),
	}
}

func registerSessionRoutes(mux *http.ServeMux, logger *slog.Logger, voice Voice) {
	mux.HandleFunc("/v1/sessions/inbound", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload InboundRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}

		start := voice.Sessions.StartInbound(r.Context(), strings.TrimSpace(payload.RoomName), payload.Participants)
		view := viewOf(start.Session)
		view.CallerSource = string(start.Caller.Source)
		view.Greeting = start.Greeting
		respondJSON(w, http.StatusCreated, view)
	})

	mux.HandleFunc("/v1/sessions/outbound", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload OutboundRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}

		md, err := decodeMetadata(payload.Metadata)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !payload.SkipDial && voice.Dialer == nil {
			respondError(w, http.StatusNotImplemented, "telephony not configured")
			return
		}
		if strings.TrimSpace(md.PhoneNumber) == "" {
			respondError(w, http.StatusBadRequest, telephony.ErrNoPhone.Error())
			return
		}

		room := strings.TrimSpace(payload.RoomName)
		if room == "" {
			room = "outbound-" + uuid.NewString()
		}

		meeting := md.MeetingData
		var dialed *telephony.DialResult
		if !payload.SkipDial {
			call, err := telephony.Resolve(md, voice.Defaults)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			res, err := voice.Dialer.Dial(r.Context(), room, call)
			if err != nil {
				logger.Warn("outbound dial failed", "room", room, "to", call.To, "err", err)
				respondError(w, http.StatusBadGateway, err.Error())
				return
			}
			dialed = &res
			meeting = call.Meeting
		}

		sess := voice.Sessions.StartOutbound(r.Context(), room, meeting)
		view := viewOf(sess)
		view.Dial = dialed
		respondJSON(w, http.StatusCreated, view)
	})

	mux.HandleFunc("/v1/sessions/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			respondError(w, http.StatusBadRequest, "missing session id")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			sess, err := voice.Sessions.Get(id)
			if err != nil {
				respondSessionError(w, logger, err)
				return
			}
			respondJSON(w, http.StatusOK, viewOf(sess))
		case action == "" && r.Method == http.MethodDelete:
			if err := voice.Sessions.End(r.Context(), id); err != nil {
				respondSessionError(w, logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case action == "turns" && r.Method == http.MethodPost:
			handleTurn(w, r, logger, voice.Sessions, id)
		case action == "stream" && r.Method == http.MethodGet:
			handleStream(w, r, logger, voice.Sessions, id)
		case action == "" || action == "turns" || action == "stream":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			respondError(w, http.StatusNotFound, "unknown session action")
		}
	})
}

func handleTurn(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sessions *agent.Manager, id string) {
	var payload TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	result, err := sessions.Turn(r.Context(), id, payload.Text)
	if err != nil {
		respondSessionError(w, logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func respondSessionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, msg := sessionErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("session request failed", "err", err)
	}
	respondError(w, status, msg)
}

func sessionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, agent.ErrSessionEnded):
		return http.StatusConflict, "session has ended"
	case errors.Is(err, agent.ErrEmptyTurn):
		return http.StatusBadRequest, "text is required"
	default:
		return http.StatusBadGateway, "upstream request failed"
	}
}

func decodeMetadata(raw json.RawMessage) (telephony.Metadata, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return telephony.Metadata{}, telephony.ErrNoMetadata
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return telephony.Metadata{}, err
		}
		return telephony.ParseMetadata(s)
	}
	return telephony.ParseMetadata(trimmed)
}
