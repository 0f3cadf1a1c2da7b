package messages_test

import (
	"context"
	"errors"
	"testing"

	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/storage/memory"
)

func TestTake(t *testing.T) {
	svc := messages.NewService(memory.NewMessageRepository())
	ctx := context.Background()

	msg, err := svc.Take(ctx, messages.TakeInput{
		CallID:        "call-1",
		CallerName:    " Robin ",
		CallerID:      "+15557654321",
		PreferredDate: "next Tuesday",
	})
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamp, got %+v", msg)
	}
	if msg.CallerName != "Robin" || msg.PhoneNumber != "+15557654321" {
		t.Fatalf("unexpected caller fields: %+v", msg)
	}
	if msg.Body != "Meeting request" || !msg.IsMeetingRequest() {
		t.Fatalf("expected meeting request body, got %q", msg.Body)
	}

	general, err := svc.Take(ctx, messages.TakeInput{CallerName: "Lee"})
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if general.PhoneNumber != messages.NotProvided || general.Body != "General inquiry" {
		t.Fatalf("unexpected defaults: %+v", general)
	}

	explicit, _ := svc.Take(ctx, messages.TakeInput{CallerName: "Kim", PhoneNumber: "+15550001111", CallerID: "+15559999999", Body: "Call me back"})
	if explicit.PhoneNumber != "+15550001111" || explicit.Body != "Call me back" {
		t.Fatalf("expected spoken number and body to win, got %+v", explicit)
	}

	list, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 || list[0].CallerName != "Kim" {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestTakeRequiresName(t *testing.T) {
	svc := messages.NewService(memory.NewMessageRepository())
	if _, err := svc.Take(context.Background(), messages.TakeInput{Body: "hi"}); !errors.Is(err, messages.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestNullRepository(t *testing.T) {
	svc := messages.NewService(messages.NullRepository{})
	if _, err := svc.Take(context.Background(), messages.TakeInput{CallerName: "x"}); !errors.Is(err, messages.ErrNotImplemented) {
		t.Fatalf("expected not implemented, got %v", err)
	}
}
