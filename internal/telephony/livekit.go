package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/twitchtv/twirp"
)

const defaultDialTimeout = 60 * time.Second

// ErrNoAnswer is returned when the callee does not pick up within the dial timeout.
var ErrNoAnswer = errors.New("telephony: call was not answered")

// SIPClient places SIP calls into rooms.
type SIPClient interface {
	CreateSIPParticipant(ctx context.Context, req *livekit.CreateSIPParticipantRequest) (*livekit.SIPParticipantInfo, error)
}

// RoomClient manages rooms.
type RoomClient interface {
	DeleteRoom(ctx context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error)
}

// DispatchClient hands jobs to named agent workers.
type DispatchClient interface {
	CreateDispatch(ctx context.Context, req *livekit.CreateAgentDispatchRequest) (*livekit.AgentDispatch, error)
}

// LiveKitConfig configures the LiveKit adapter.
type LiveKitConfig struct {
	URL               string
	APIKey            string
	APISecret         string
	OutboundAgentName string
	DialTimeout       time.Duration
	// BusinessName is shown as the SIP participant name.
	BusinessName string
}

// LiveKit dials, dispatches and hangs up calls through a LiveKit server.
type LiveKit struct {
	sip      SIPClient
	rooms    RoomClient
	dispatch DispatchClient
	cfg      LiveKitConfig
	logger   *slog.Logger
}

// NewLiveKit builds an adapter with server SDK clients.
func NewLiveKit(cfg LiveKitConfig, logger *slog.Logger) *LiveKit {
	return NewLiveKitWithClients(
		lksdk.NewSIPClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		lksdk.NewAgentDispatchServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		cfg, logger,
	)
}

// NewLiveKitWithClients builds an adapter over the given clients.
func NewLiveKitWithClients(sip SIPClient, rooms RoomClient, dispatch DispatchClient, cfg LiveKitConfig, logger *slog.Logger) *LiveKit {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveKit{sip: sip, rooms: rooms, dispatch: dispatch, cfg: cfg, logger: logger}
}

// DialResult identifies the answered SIP leg.
type DialResult struct {
	Room                string `json:"room"`
	ParticipantID       string `json:"participant_id"`
	ParticipantIdentity string `json:"participant_identity"`
	SIPCallID           string `json:"sip_call_id"`
}

// DialError carries the SIP status reported by the trunk.
type DialError struct {
	Code          string
	Message       string
	SIPStatusCode string
	SIPStatus     string
}

func (e *DialError) Error() string {
	if e.SIPStatusCode != "" {
		return fmt.Sprintf("sip dial failed: %s (sip %s %s)", e.Message, e.SIPStatusCode, e.SIPStatus)
	}
	return fmt.Sprintf("sip dial failed: %s", e.Message)
}

// Dial rings call.To into room and blocks until the callee answers.
func (l *LiveKit) Dial(ctx context.Context, room string, call Call) (DialResult, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.DialTimeout)
	defer cancel()

	req := &livekit.CreateSIPParticipantRequest{
		RoomName:            room,
		SipTrunkId:          call.TrunkID,
		SipCallTo:           call.To,
		SipNumber:           call.CallerID,
		ParticipantIdentity: call.To,
		ParticipantName:     l.cfg.BusinessName,
		WaitUntilAnswered:   true,
	}
	l.logger.Info("dialing", "room", room, "to", call.To, "trunk", call.TrunkID, "caller_id", call.CallerID, "timeout", l.cfg.DialTimeout)

	info, err := l.sip.CreateSIPParticipant(ctx, req)
	if err != nil {
		var terr twirp.Error
		switch {
		case errors.As(err, &terr):
			derr := &DialError{
				Code:          string(terr.Code()),
				Message:       terr.Msg(),
				SIPStatusCode: terr.Meta("sip_status_code"),
				SIPStatus:     terr.Meta("sip_status"),
			}
			l.logger.Error("sip participant creation failed", "room", room, "to", call.To,
				"code", derr.Code, "sip_status_code", derr.SIPStatusCode, "sip_status", derr.SIPStatus, "error", derr.Message)
			return DialResult{}, derr
		case errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
			l.logger.Info("call not answered", "room", room, "to", call.To, "timeout", l.cfg.DialTimeout)
			return DialResult{}, ErrNoAnswer
		default:
			l.logger.Error("dial failed", "room", room, "to", call.To, "trunk", call.TrunkID, "error", err)
			return DialResult{}, fmt.Errorf("create sip participant: %w", err)
		}
	}

	res := DialResult{
		Room:                room,
		ParticipantID:       info.GetParticipantId(),
		ParticipantIdentity: info.GetParticipantIdentity(),
		SIPCallID:           info.GetSipCallId(),
	}
	l.logger.Info("call answered", "room", room, "participant", res.ParticipantIdentity, "sip_call_id", res.SIPCallID)
	return res, nil
}

// Hangup ends the call by deleting its room.
func (l *LiveKit) Hangup(ctx context.Context, room string) error {
	if _, err := l.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: room}); err != nil {
		return fmt.Errorf("delete room %s: %w", room, err)
	}
	l.logger.Info("room deleted", "room", room)
	return nil
}

// Dispatched describes a created agent dispatch.
type Dispatched struct {
	DispatchID string `json:"dispatch_id"`
	Room       string `json:"room"`
	AgentName  string `json:"agent_name"`
}

// Dispatch asks the outbound agent worker to call md. A room named
// outbound-<uuid> is used when room is empty.
func (l *LiveKit) Dispatch(ctx context.Context, room string, md Metadata) (Dispatched, error) {
	if md.PhoneNumber == "" {
		return Dispatched{}, ErrNoPhone
	}
	if room == "" {
		room = "outbound-" + uuid.NewString()
	}
	raw, err := md.Encode()
	if err != nil {
		return Dispatched{}, err
	}

	d, err := l.dispatch.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: l.cfg.OutboundAgentName,
		Room:      room,
		Metadata:  raw,
	})
	if err != nil {
		return Dispatched{}, fmt.Errorf("create dispatch: %w", err)
	}
	l.logger.Info("outbound call dispatched", "room", room, "agent", l.cfg.OutboundAgentName, "dispatch_id", d.GetId(), "phone", md.PhoneNumber)
	return Dispatched{DispatchID: d.GetId(), Room: room, AgentName: l.cfg.OutboundAgentName}, nil
}
