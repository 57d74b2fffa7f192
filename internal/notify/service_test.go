package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

type captureSender struct {
	chatID string
	text   string
	calls  int
	err    error
}

func (c *captureSender) Send(_ context.Context, chatID, text string) error {
	c.calls++
	c.chatID = chatID
	c.text = text
	return c.err
}

func TestEscalateSendsToSupportGroup(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, "-100200300", logging.Default())

	svc.Escalate(context.Background(), UserProfile{
		ChatID:      "555",
		Username:    "ivan",
		DisplayName: "Ivan Petrov",
	}, "I need to talk to a human")

	if sender.calls != 1 {
		t.Fatalf("expected one send, got %d", sender.calls)
	}
	if sender.chatID != "-100200300" {
		t.Fatalf("expected support group target, got %q", sender.chatID)
	}
	want := "👤 Request from user Ivan Petrov (@ivan, id 555):\n\nI need to talk to a human"
	if sender.text != want {
		t.Fatalf("unexpected message:\n got: %q\nwant: %q", sender.text, want)
	}
}

func TestEscalateWithoutUsername(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, "-1", logging.Default())

	svc.Escalate(context.Background(), UserProfile{ChatID: "777"}, "hello")

	if sender.text != "👤 Request from user (id 777):\n\nhello" {
		t.Fatalf("unexpected message: %q", sender.text)
	}
}

func TestEscalateSkipsWhenGroupNotConfigured(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, "", logging.Default())

	svc.Escalate(context.Background(), UserProfile{ChatID: "555"}, "help")

	if sender.calls != 0 {
		t.Fatalf("expected no sends, got %d", sender.calls)
	}
}

func TestEscalateSwallowsDeliveryErrors(t *testing.T) {
	sender := &captureSender{err: errors.New("transport down")}
	svc := NewService(sender, "-1", logging.Default())

	// must not panic or propagate
	svc.Escalate(context.Background(), UserProfile{ChatID: "555"}, "help")

	if sender.calls != 1 {
		t.Fatalf("expected one attempted send, got %d", sender.calls)
	}
}
