package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gorilla/websocket"

	"github.com/recallbe/recall/internal/agent"
	"github.com/recallbe/recall/internal/domain"
	"github.com/recallbe/recall/internal/domain/business"
	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/scheduling"
	"github.com/recallbe/recall/internal/httpapi"
	"github.com/recallbe/recall/internal/storage/memory"
	"github.com/recallbe/recall/internal/telephony"
)

type scriptedClient struct {
	mu      sync.Mutex
	replies []*anthropic.Message
}

func (c *scriptedClient) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: "Okay."}}}, nil
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next, nil
}

func (c *scriptedClient) queue(msgs ...*anthropic.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, msgs...)
}

func text(s string) *anthropic.Message {
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: s}}}
}

func toolUse(name string) *anthropic.Message {
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "tool_use", ID: "tu_" + name, Name: name, Input: json.RawMessage(`{}`)}}}
}

type fakeDialer struct {
	calls []telephony.Call
	err   error
}

func (d *fakeDialer) Dial(ctx context.Context, room string, call telephony.Call) (telephony.DialResult, error) {
	d.calls = append(d.calls, call)
	if d.err != nil {
		return telephony.DialResult{}, d.err
	}
	return telephony.DialResult{Room: room, ParticipantIdentity: call.To, SIPCallID: "SCL_1"}, nil
}

type fakeDispatcher struct {
	md telephony.Metadata
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, room string, md telephony.Metadata) (telephony.Dispatched, error) {
	d.md = md
	if room == "" {
		room = "outbound-generated"
	}
	return telephony.Dispatched{DispatchID: "AD_1", Room: room, AgentName: "outbound-caller"}, nil
}

type phoneLog struct {
	mu    sync.Mutex
	rooms []string
}

func (p *phoneLog) Hangup(ctx context.Context, room string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = append(p.rooms, room)
	return nil
}

func (p *phoneLog) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms)
}

type harness struct {
	mux        *http.ServeMux
	client     *scriptedClient
	dialer     *fakeDialer
	dispatcher *fakeDispatcher
	phone      *phoneLog
	services   domain.Container
}

func newHarness(t *testing.T, withTelephony bool) *harness {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	profile := business.Default()
	profile.Name = "Acme Legal"
	profile.Location = loc
	now := func() time.Time { return time.Date(2026, time.October, 14, 10, 30, 0, 0, loc) }

	cal := memory.NewCalendar(scheduling.Event{
		Summary: "Existing",
		Start:   time.Date(2026, time.October, 15, 14, 0, 0, 0, loc),
		End:     time.Date(2026, time.October, 15, 15, 0, 0, 0, loc),
	})
	services := domain.New(domain.Options{
		HistoryRepo: memory.NewCallHistoryRepository(),
		MessageRepo: memory.NewMessageRepository(),
		Calendar:    cal,
		Profile:     profile,
		Clock:       now,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		mux:        http.NewServeMux(),
		client:     &scriptedClient{},
		dialer:     &fakeDialer{},
		dispatcher: &fakeDispatcher{},
		phone:      &phoneLog{},
		services:   services,
	}
	manager := agent.NewManager(agent.NewEngine(h.client, agent.EngineConfig{}, logger), agent.Deps{
		Scheduling:        services.Scheduling,
		History:           services.History,
		Messages:          services.Messages,
		Phone:             h.phone,
		Logger:            logger,
		SchedulingEnabled: services.SchedulingEnabled,
	}, agent.ManagerConfig{})

	voice := httpapi.Voice{Sessions: manager}
	if withTelephony {
		voice.Defaults = telephony.Defaults{TrunkID: "ST_default", CallerID: "+15550000000"}
		voice.Dialer = h.dialer
		voice.Dispatcher = h.dispatcher
	}
	httpapi.Register(h.mux, logger, services, voice)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type sessionResp struct {
	ID           string   `json:"session_id"`
	Kind         string   `json:"kind"`
	CallerPhone  string   `json:"caller_phone"`
	CallerSource string   `json:"caller_source"`
	Greeting     string   `json:"greeting"`
	Tools        []string `json:"tools"`
	Dial         *struct {
		SIPCallID string `json:"sip_call_id"`
	} `json:"dial"`
}

func TestPing(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(t, http.MethodGet, "/v1/ping", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"server":"recall-be"`) {
		t.Fatalf("unexpected ping: %d %s", rec.Code, rec.Body.String())
	}
}

func TestInboundSessionLifecycle(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(t, http.MethodPost, "/v1/sessions/inbound", map[string]any{
		"room_name":    "call-_+15551234567_xyz",
		"participants": []map[string]string{{"identity": "sip_guest", "metadata": "{}"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess sessionResp
	decodeBody(t, rec, &sess)
	if sess.Kind != "inbound" || sess.CallerPhone != "+15551234567" || sess.CallerSource == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Greeting != "Thank you for calling Acme Legal, how may I help you today?" || len(sess.Tools) != 5 {
		t.Fatalf("unexpected greeting or tools: %+v", sess)
	}

	h.client.queue(text("We're open Monday to Friday."))
	rec = h.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/turns", map[string]string{"text": "When are you open?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var turn agent.TurnResult
	decodeBody(t, rec, &turn)
	if turn.Reply != "We're open Monday to Friday." || turn.Ended {
		t.Fatalf("unexpected turn: %+v", turn)
	}

	if rec := h.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/turns", map[string]string{"text": " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/v1/sessions/"+sess.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected session lookup, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodDelete, "/v1/sessions/"+sess.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/turns", map[string]string{"text": "hello"}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPut, "/v1/sessions/"+sess.ID+"/turns", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestOutboundSession(t *testing.T) {
	h := newHarness(t, true)

	meta := `{"phone_number":"+15557654321","customer_name":"Jordan","meeting_date":"2026-10-10","meeting_purpose":"Consultation"}`
	rec := h.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{
		"room_name": "outbound-1",
		"metadata":  meta,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess sessionResp
	decodeBody(t, rec, &sess)
	if sess.Kind != "outbound" || sess.Dial == nil || sess.Dial.SIPCallID != "SCL_1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if len(h.dialer.calls) != 1 || h.dialer.calls[0].TrunkID != "ST_default" {
		t.Fatalf("unexpected dial: %+v", h.dialer.calls)
	}

	h.client.queue(toolUse("end_call_successful"), text("Thank you! Have a great day!"))
	rec = h.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/turns", map[string]string{"text": "All set, thanks."})
	var turn agent.TurnResult
	decodeBody(t, rec, &turn)
	if !turn.Ended || turn.Hangup != "after_reply" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if rec := h.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/turns", map[string]string{"text": "hello?"}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on an ended session, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodDelete, "/v1/sessions/"+sess.ID, nil); rec.Code != http.StatusNoContent || h.phone.count() != 1 {
		t.Fatalf("expected hangup on delete, got %d with %d hangups", rec.Code, h.phone.count())
	}

	rec = h.do(t, http.MethodGet, "/v1/call-history?phone=%2B15557654321", nil)
	var history struct {
		Data  []callhistory.Record `json:"data"`
		Count int                  `json:"count"`
	}
	decodeBody(t, rec, &history)
	if history.Count != 1 || history.Data[0].CallID != "outbound-1" || history.Data[0].Notes != "Call completed successfully" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if rec := h.do(t, http.MethodGet, "/v1/call-history/outbound-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected record lookup, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/v1/call-history/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOutboundSessionErrors(t *testing.T) {
	h := newHarness(t, true)

	rec := h.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{"metadata": map[string]string{"customer_name": "x"}})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "no phone number") {
		t.Fatalf("expected missing phone error, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected missing metadata error, got %d", rec.Code)
	}

	h.dialer.err = telephony.ErrNoAnswer
	rec = h.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{"metadata": map[string]string{"phone_number": "+15557654321"}})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on dial failure, got %d", rec.Code)
	}

	// Without telephony there is no trunk or caller ID either.
	offline := newHarness(t, false)
	rec = offline.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{"metadata": map[string]string{"phone_number": "+15557654321"}})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without telephony, got %d", rec.Code)
	}
	rec = offline.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{
		"metadata":  map[string]string{"phone_number": "+15557654321"},
		"skip_dial": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected skip_dial to start a session, got %d %s", rec.Code, rec.Body.String())
	}
	var started sessionResp
	decodeBody(t, rec, &started)
	if started.Kind != "outbound" || started.Dial != nil {
		t.Fatalf("unexpected skip_dial session: %+v", started)
	}
	rec = offline.do(t, http.MethodPost, "/v1/sessions/outbound", map[string]any{
		"metadata":  map[string]string{"customer_name": "x"},
		"skip_dial": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected skip_dial to still need a phone, got %d", rec.Code)
	}
}

func TestOutboundCalls(t *testing.T) {
	h := newHarness(t, true)
	rec := h.do(t, http.MethodPost, "/v1/outbound-calls", map[string]string{
		"phone_number":  " +15557654321 ",
		"customer_name": "Jordan",
		"meeting_date":  "2026-10-10",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if h.dispatcher.md.PhoneNumber != "+15557654321" || h.dispatcher.md.Date != "2026-10-10" {
		t.Fatalf("unexpected dispatch metadata: %+v", h.dispatcher.md)
	}
	if rec := h.do(t, http.MethodPost, "/v1/outbound-calls", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := newHarness(t, false).do(t, http.MethodPost, "/v1/outbound-calls", map[string]string{"phone_number": "+1"}); rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestCalendarRoutes(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(t, http.MethodGet, "/v1/calendar/availability?date=tomorrow&time=2pm", nil)
	var avail struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
		Formatted string `json:"formatted"`
	}
	decodeBody(t, rec, &avail)
	if avail.Available || avail.Reason != "booked" || avail.Formatted != "Thursday, October 15 at 02:00 PM" {
		t.Fatalf("unexpected availability: %+v", avail)
	}
	rec = h.do(t, http.MethodGet, "/v1/calendar/availability?date=2026-10-17&time=10am", nil)
	decodeBody(t, rec, &avail)
	if avail.Reason != "closed" {
		t.Fatalf("expected closed, got %+v", avail)
	}
	if rec := h.do(t, http.MethodGet, "/v1/calendar/availability?date=tomorrow", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/v1/calendar/slots?count=2", nil)
	var slots struct {
		Data []struct {
			Formatted string `json:"formatted"`
		} `json:"data"`
	}
	decodeBody(t, rec, &slots)
	if len(slots.Data) != 2 || slots.Data[0].Formatted != "Wednesday, October 14 at 11:00 AM" {
		t.Fatalf("unexpected slots: %+v", slots)
	}
	if rec := h.do(t, http.MethodGet, "/v1/calendar/slots?count=zero", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/v1/calendar/busy?date=2026-10-15", nil)
	var busy struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	decodeBody(t, rec, &busy)
	if busy.Date != "2026-10-15" || busy.Count != 1 {
		t.Fatalf("unexpected busy: %+v", busy)
	}
}

func TestCalendarNotConfigured(t *testing.T) {
	services := domain.New(domain.Options{Profile: business.Default()})
	if services.SchedulingEnabled {
		t.Fatalf("expected scheduling to be disabled without a calendar")
	}
	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpapi.Register(mux, logger, services, httpapi.Voice{})

	req := httptest.NewRequest(http.MethodGet, "/v1/calendar/busy?date=tomorrow", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for messages without storage, got %d", rec.Code)
	}
}

func TestMessagesPagination(t *testing.T) {
	h := newHarness(t, false)
	if rec := h.do(t, http.MethodGet, "/v1/messages?offset=-1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec := h.do(t, http.MethodGet, "/v1/messages?limit=5", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":0`) {
		t.Fatalf("unexpected messages: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStream(t *testing.T) {
	h := newHarness(t, false)
	srv := httptest.NewServer(h.mux)
	defer srv.Close()

	rec := h.do(t, http.MethodPost, "/v1/sessions/inbound", map[string]any{"room_name": "room-1"})
	var sess sessionResp
	decodeBody(t, rec, &sess)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + sess.ID + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial stream: %v (%v)", err, resp)
	}

	h.client.queue(text("Hello there."))
	if err := conn.WriteJSON(map[string]string{"text": "Hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var turn agent.TurnResult
	if err := conn.ReadJSON(&turn); err != nil {
		t.Fatalf("read: %v", err)
	}
	if turn.Reply != "Hello there." {
		t.Fatalf("unexpected reply: %+v", turn)
	}

	if err := conn.WriteJSON(map[string]string{"text": ""}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var failure struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := conn.ReadJSON(&failure); err != nil {
		t.Fatalf("read: %v", err)
	}
	if failure.Status != http.StatusBadRequest {
		t.Fatalf("unexpected stream error: %+v", failure)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := h.do(t, http.MethodGet, "/v1/sessions/"+sess.ID, nil)
		if rec.Code == http.StatusNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session still live after stream close")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	if err == nil || !errors.Is(err, websocket.ErrBadHandshake) || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake for a closed session, got %v", err)
	}
}
