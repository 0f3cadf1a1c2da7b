package telephony_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/twitchtv/twirp"

	"github.com/recallbe/recall/internal/telephony"
)

func TestParseAndResolve(t *testing.T) {
	md, err := telephony.ParseMetadata(`{"phone_number":"+15551234567","customer_name":"Jordan","meeting_date":"2026-10-10","meeting_time":"3:00 PM","meeting_purpose":"Consultation"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if md.CustomerName != "Jordan" || md.Time != "3:00 PM" {
		t.Fatalf("unexpected metadata: %+v", md)
	}

	call, err := telephony.Resolve(md, telephony.Defaults{TrunkID: "ST_default", CallerID: "+15550000000"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if call.To != "+15551234567" || call.TrunkID != "ST_default" || call.CallerID != "+15550000000" {
		t.Fatalf("unexpected call: %+v", call)
	}

	md.SIPTrunkID = "ST_override"
	md.CallerID = "+15559999999"
	call, _ = telephony.Resolve(md, telephony.Defaults{TrunkID: "ST_default", CallerID: "+15550000000"})
	if call.TrunkID != "ST_override" || call.CallerID != "+15559999999" {
		t.Fatalf("metadata overrides should win: %+v", call)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := telephony.ParseMetadata("  "); !errors.Is(err, telephony.ErrNoMetadata) {
		t.Fatalf("expected no metadata, got %v", err)
	}
	if _, err := telephony.ParseMetadata("{"); err == nil {
		t.Fatalf("expected decode error")
	}

	cases := []struct {
		name string
		md   telephony.Metadata
		d    telephony.Defaults
		want error
	}{
		{"no phone", telephony.Metadata{}, telephony.Defaults{TrunkID: "ST", CallerID: "+1"}, telephony.ErrNoPhone},
		{"no trunk", phoneOnly("+15551234567"), telephony.Defaults{CallerID: "+1"}, telephony.ErrNoTrunk},
		{"no caller id", phoneOnly("+15551234567"), telephony.Defaults{TrunkID: "ST"}, telephony.ErrNoCallerID},
	}
	for _, tc := range cases {
		if _, err := telephony.Resolve(tc.md, tc.d); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func phoneOnly(phone string) telephony.Metadata {
	var md telephony.Metadata
	md.PhoneNumber = phone
	return md
}

type fakeSIP struct {
	req  *livekit.CreateSIPParticipantRequest
	err  error
	wait bool
}

func (f *fakeSIP) CreateSIPParticipant(ctx context.Context, req *livekit.CreateSIPParticipantRequest) (*livekit.SIPParticipantInfo, error) {
	f.req = req
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &livekit.SIPParticipantInfo{
		ParticipantId:       "PA_1",
		ParticipantIdentity: req.ParticipantIdentity,
		RoomName:            req.RoomName,
		SipCallId:           "SCL_1",
	}, nil
}

type fakeRooms struct{ deleted []string }

func (f *fakeRooms) DeleteRoom(ctx context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error) {
	f.deleted = append(f.deleted, req.Room)
	return &livekit.DeleteRoomResponse{}, nil
}

type fakeDispatch struct{ req *livekit.CreateAgentDispatchRequest }

func (f *fakeDispatch) CreateDispatch(ctx context.Context, req *livekit.CreateAgentDispatchRequest) (*livekit.AgentDispatch, error) {
	f.req = req
	return &livekit.AgentDispatch{Id: "AD_1", AgentName: req.AgentName, Room: req.Room, Metadata: req.Metadata}, nil
}

func newAdapter(sip *fakeSIP, rooms *fakeRooms, dispatch *fakeDispatch, timeout time.Duration) *telephony.LiveKit {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return telephony.NewLiveKitWithClients(sip, rooms, dispatch, telephony.LiveKitConfig{
		OutboundAgentName: "outbound-caller",
		DialTimeout:       timeout,
		BusinessName:      "Acme Legal",
	}, logger)
}

func testCall() telephony.Call {
	c := telephony.Call{To: "+15551234567", TrunkID: "ST_1", CallerID: "+15550000000"}
	c.Meeting.CustomerName = "Jordan"
	return c
}

func TestDial(t *testing.T) {
	sip := &fakeSIP{}
	lk := newAdapter(sip, &fakeRooms{}, &fakeDispatch{}, time.Second)

	res, err := lk.Dial(context.Background(), "outbound-1", testCall())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if res.SIPCallID != "SCL_1" || res.ParticipantIdentity != "+15551234567" {
		t.Fatalf("unexpected result: %+v", res)
	}
	req := sip.req
	if !req.WaitUntilAnswered || req.SipTrunkId != "ST_1" || req.SipNumber != "+15550000000" || req.RoomName != "outbound-1" || req.ParticipantName != "Acme Legal" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDialReportsSIPStatus(t *testing.T) {
	terr := twirp.NewError(twirp.Unavailable, "busy here").
		WithMeta("sip_status_code", "486").
		WithMeta("sip_status", "Busy Here")
	lk := newAdapter(&fakeSIP{err: terr}, &fakeRooms{}, &fakeDispatch{}, time.Second)

	_, err := lk.Dial(context.Background(), "outbound-1", testCall())
	var derr *telephony.DialError
	if !errors.As(err, &derr) {
		t.Fatalf("expected dial error, got %v", err)
	}
	if derr.SIPStatusCode != "486" || derr.SIPStatus != "Busy Here" || !strings.Contains(derr.Error(), "486") {
		t.Fatalf("unexpected dial error: %+v", derr)
	}
}

func TestDialTimeout(t *testing.T) {
	lk := newAdapter(&fakeSIP{wait: true}, &fakeRooms{}, &fakeDispatch{}, 20*time.Millisecond)
	if _, err := lk.Dial(context.Background(), "outbound-1", testCall()); !errors.Is(err, telephony.ErrNoAnswer) {
		t.Fatalf("expected no answer, got %v", err)
	}
}

func TestHangupAndDispatch(t *testing.T) {
	rooms := &fakeRooms{}
	dispatch := &fakeDispatch{}
	lk := newAdapter(&fakeSIP{}, rooms, dispatch, time.Second)

	if err := lk.Hangup(context.Background(), "outbound-1"); err != nil {
		t.Fatalf("hangup failed: %v", err)
	}
	if len(rooms.deleted) != 1 || rooms.deleted[0] != "outbound-1" {
		t.Fatalf("unexpected deletes: %v", rooms.deleted)
	}

	md := phoneOnly("+15551234567")
	md.CustomerName = "Jordan"
	d, err := lk.Dispatch(context.Background(), "", md)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !strings.HasPrefix(d.Room, "outbound-") || d.DispatchID != "AD_1" || dispatch.req.AgentName != "outbound-caller" {
		t.Fatalf("unexpected dispatch: %+v", d)
	}
	back, err := telephony.ParseMetadata(dispatch.req.Metadata)
	if err != nil || back.PhoneNumber != "+15551234567" || back.CustomerName != "Jordan" {
		t.Fatalf("metadata did not round trip: %+v %v", back, err)
	}

	if _, err := lk.Dispatch(context.Background(), "r", telephony.Metadata{}); !errors.Is(err, telephony.ErrNoPhone) {
		t.Fatalf("expected no phone, got %v", err)
	}
}
