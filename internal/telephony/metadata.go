package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/recallbe/recall/internal/agent"
)

var (
	ErrNoMetadata = errors.New("telephony: no call metadata")
	ErrNoPhone    = errors.New("telephony: no phone number provided")
	ErrNoTrunk    = errors.New("telephony: no SIP trunk configured")
	ErrNoCallerID = errors.New("telephony: no caller ID configured")
)

// Metadata travels with an outbound dispatch as the job metadata. The
// meeting fields are flattened next to the trunk overrides.
type Metadata struct {
	agent.MeetingData
	SIPTrunkID string `json:"sip_trunk_id,omitempty"`
	CallerID   string `json:"caller_id,omitempty"`
}

// ParseMetadata decodes job metadata.
func ParseMetadata(raw string) (Metadata, error) {
	if strings.TrimSpace(raw) == "" {
		return Metadata{}, ErrNoMetadata
	}
	var md Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return Metadata{}, fmt.Errorf("decode call metadata: %w", err)
	}
	return md, nil
}

// Encode renders metadata for a dispatch request.
func (m Metadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode call metadata: %w", err)
	}
	return string(b), nil
}

// Defaults fill trunk and caller ID when metadata leaves them out.
type Defaults struct {
	TrunkID  string
	CallerID string
}

// Call is a fully resolved outbound dial.
type Call struct {
	Meeting  agent.MeetingData
	To       string
	TrunkID  string
	CallerID string
}

// Resolve checks that md can be dialed, applying defaults.
func Resolve(md Metadata, d Defaults) (Call, error) {
	to := strings.TrimSpace(md.PhoneNumber)
	if to == "" {
		return Call{}, ErrNoPhone
	}
	trunk := strings.TrimSpace(md.SIPTrunkID)
	if trunk == "" {
		trunk = d.TrunkID
	}
	if trunk == "" {
		return Call{}, ErrNoTrunk
	}
	callerID := strings.TrimSpace(md.CallerID)
	if callerID == "" {
		callerID = d.CallerID
	}
	if callerID == "" {
		return Call{}, ErrNoCallerID
	}
	return Call{Meeting: md.MeetingData, To: to, TrunkID: trunk, CallerID: callerID}, nil
}
