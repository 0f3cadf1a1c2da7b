package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/recallbe/recall/internal/domain/callerid"
)

// ManagerConfig sets per-kind sampling temperatures.
type ManagerConfig struct {
	InboundTemperature  float64
	OutboundTemperature float64
}

// Manager creates, looks up and forgets sessions.
type Manager struct {
	engine *Engine
	deps   Deps
	cfg    ManagerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager wires sessions to the engine and tool dependencies.
func NewManager(engine *Engine, deps Deps, cfg ManagerConfig) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Phone == nil {
		deps.Phone = NullPhone{Logger: deps.Logger}
	}
	return &Manager{
		engine:   engine,
		deps:     deps,
		cfg:      cfg,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
	}
}

// InboundStart is what the gateway needs to begin a receptionist call.
type InboundStart struct {
	Session  *Session
	Caller   callerid.Result
	Greeting string
}

// StartInbound opens a receptionist session for a room.
func (m *Manager) StartInbound(ctx context.Context, room string, participants []callerid.Participant) InboundStart {
	sess := newSession(Inbound, room)

	caller := callerid.Extract(room, participants)
	sess.CallerPhone = caller.Phone
	if caller.Found() {
		m.logger.Info("caller phone detected", "session", sess.ID, "room", room, "phone", caller.Phone, "source", string(caller.Source))
	} else {
		m.logger.Info("no caller phone detected", "session", sess.ID, "room", room, "participants", len(participants))
	}

	profile := m.deps.Scheduling.Profile()
	greeting := profile.Greeting()
	var b strings.Builder
	b.WriteString(profile.ReceptionistInstructions(m.deps.SchedulingEnabled))
	if caller.Found() {
		fmt.Fprintf(&b, "\n\nThe caller's phone number was detected automatically: %s. Do not ask for it unless they want to give a different one.", caller.Phone)
	}
	fmt.Fprintf(&b, "\n\nYou have already greeted the caller with: %q", greeting)

	sess.instructions = b.String()
	sess.temperature = m.cfg.InboundTemperature
	sess.tools = receptionistTools(m.deps, sess)

	m.put(sess)
	m.logger.Info("inbound session started", "session", sess.ID, "room", room, "tools", sess.tools.Names())
	return InboundStart{Session: sess, Caller: caller, Greeting: greeting}
}

// StartOutbound opens a recall session for a dialed customer.
func (m *Manager) StartOutbound(ctx context.Context, room string, meeting MeetingData) *Session {
	sess := newSession(Outbound, room)
	sess.Meeting = meeting.WithDefaults()
	sess.CallerPhone = sess.Meeting.PhoneNumber

	profile := m.deps.Scheduling.Profile()
	var b strings.Builder
	b.WriteString(profile.OutboundInstructions(m.deps.Scheduling.Now()))
	fmt.Fprintf(&b, "\n\nCustomer: %s. Missed meeting: %s", sess.Meeting.CustomerName, sess.Meeting.Date)
	if sess.Meeting.Time != "" {
		fmt.Fprintf(&b, " at %s", sess.Meeting.Time)
	}
	fmt.Fprintf(&b, " regarding %s.", sess.Meeting.Purpose)

	sess.instructions = b.String()
	sess.temperature = m.cfg.OutboundTemperature
	sess.tools = outboundTools(m.deps, sess, meeting)

	m.put(sess)
	m.logger.Info("outbound session started", "session", sess.ID, "room", room, "phone", sess.Meeting.PhoneNumber)
	return sess
}

func (m *Manager) put(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Turn feeds one caller utterance to the session.
func (m *Manager) Turn(ctx context.Context, id, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyTurn
	}
	sess, err := m.Get(id)
	if err != nil {
		return TurnResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return TurnResult{}, ErrSessionEnded
	}

	result, err := m.engine.run(ctx, sess, text)
	if err != nil {
		m.logger.Error("turn failed", "session", sess.ID, "error", err)
		return TurnResult{}, err
	}
	m.logger.Info("turn completed", "session", sess.ID, "tools", result.Tools, "ended", result.Ended)
	return result, nil
}

// End forgets the session. A hang-up deferred until after the final reply
// is carried out here, once the gateway has played it.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ended = true
	if sess.hangup == HangupNone || sess.hungUp {
		m.logger.Info("session ended", "session", sess.ID)
		return nil
	}

	if err := m.deps.Phone.Hangup(ctx, sess.Room); err != nil {
		m.logger.Error("hangup failed", "session", sess.ID, "room", sess.Room, "error", err)
		return fmt.Errorf("hangup %s: %w", sess.Room, err)
	}
	sess.hungUp = true
	m.logger.Info("session ended with hangup", "session", sess.ID, "room", sess.Room)
	return nil
}
