package agent

import (
	"errors"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
	ErrEmptyTurn       = errors.New("turn text is required")
)

// Kind distinguishes receptionist sessions from recall calls.
type Kind string

const (
	Inbound  Kind = "inbound"
	Outbound Kind = "outbound"
)

// Hangup says when a session's call should be disconnected.
type Hangup int

const (
	HangupNone Hangup = iota
	// HangupAfterReply disconnects once the final reply has been played.
	HangupAfterReply
	// HangupNow disconnects immediately without another reply.
	HangupNow
)

func (h Hangup) String() string {
	switch h {
	case HangupAfterReply:
		return "after_reply"
	case HangupNow:
		return "now"
	default:
		return ""
	}
}

// TurnResult is the outcome of one caller utterance.
type TurnResult struct {
	Reply  string   `json:"reply"`
	Ended  bool     `json:"ended"`
	Hangup string   `json:"hangup,omitempty"`
	Tools  []string `json:"tools"`
}

// Session is one live conversation. Turns are serialised by mu.
type Session struct {
	ID          string
	Kind        Kind
	Room        string
	CallerPhone string
	Meeting     MeetingData
	StartedAt   time.Time

	mu           sync.Mutex
	instructions string
	temperature  float64
	tools        *Registry
	history      []anthropic.MessageParam
	notes        []string
	// meetingDate is the date last written to call history.
	meetingDate *string
	hangup      Hangup
	hungUp      bool
	ended       bool
}

func newSession(kind Kind, room string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Room:      room,
		StartedAt: time.Now().UTC(),
	}
}

// CallID identifies the call in call history: the room when known.
func (s *Session) CallID() string {
	if s.Room != "" {
		return s.Room
	}
	return s.ID
}

// Ended reports whether the session accepts no more turns.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Notes returns a copy of the call notes.
func (s *Session) Notes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesLocked()
}

// ToolNames lists the tools the session exposes to the model.
func (s *Session) ToolNames() []string {
	return s.tools.Names()
}

// The helpers below are called by tools while the turn lock is held.

func (s *Session) addNote(note string) {
	s.notes = append(s.notes, note)
}

func (s *Session) notesLocked() []string {
	out := make([]string, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *Session) requestHangup(h Hangup) {
	if h > s.hangup {
		s.hangup = h
	}
}
