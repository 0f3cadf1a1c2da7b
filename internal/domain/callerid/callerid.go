// Package callerid recovers the caller's phone number from SIP room and
// participant attributes.
package callerid

import (
	"regexp"
	"strings"
)

// Participant is the subset of a remote room participant we inspect.
type Participant struct {
	Identity string `json:"identity"`
	Metadata string `json:"metadata"`
}

// Source names where a number was found.
type Source string

const (
	SourceNone                Source = ""
	SourceRoomName            Source = "room_name"
	SourceRoomNameFallback    Source = "room_name_fallback"
	SourceParticipantIdentity Source = "participant_identity"
	SourceParticipantMetadata Source = "participant_metadata"
)

var (
	roomDelimited = regexp.MustCompile(`_(\+\d{11,15})_`)
	roomAnywhere  = regexp.MustCompile(`(\+\d{11,15})`)
	participantRE = regexp.MustCompile(`(\+?1?\d{10,15})`)
)

// Result is a detected number and where it came from.
type Result struct {
	Phone  string
	Source Source
}

// Found reports whether a number was detected.
func (r Result) Found() bool { return r.Phone != "" }

// Extract looks at the room name first and then at participants in order.
// A participant match replaces a room-name match.
func Extract(roomName string, participants []Participant) Result {
	var res Result
	if m := roomDelimited.FindStringSubmatch(roomName); m != nil {
		res = Result{Phone: m[1], Source: SourceRoomName}
	} else if m := roomAnywhere.FindStringSubmatch(roomName); m != nil {
		res = Result{Phone: m[1], Source: SourceRoomNameFallback}
	}

	for _, p := range participants {
		if p.Identity != "" {
			if m := participantRE.FindStringSubmatch(p.Identity); m != nil {
				return Result{Phone: m[1], Source: SourceParticipantIdentity}
			}
		}
		if p.Metadata != "" && mentionsFrom(p.Metadata) {
			if m := participantRE.FindStringSubmatch(p.Metadata); m != nil {
				return Result{Phone: m[1], Source: SourceParticipantMetadata}
			}
		}
	}
	return res
}

func mentionsFrom(metadata string) bool {
	return strings.Contains(metadata, "X-From") || strings.Contains(strings.ToLower(metadata), "from")
}
