package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

// Sender delivers a text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Service forwards user requests to the operator support group.
// Escalation is best effort: delivery failures are logged and never
// surfaced to the user.
type Service struct {
	sender  Sender
	groupID string
	logger  *logging.Logger
}

// NewService creates an operator notification service. An empty groupID
// disables escalation.
func NewService(sender Sender, groupID string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:  sender,
		groupID: groupID,
		logger:  logger,
	}
}

// UserProfile identifies the user behind an escalation.
type UserProfile struct {
	ChatID      string
	Username    string
	DisplayName string
}

// Escalate forwards a user's request text to the support group.
func (s *Service) Escalate(ctx context.Context, user UserProfile, text string) {
	if s.sender == nil || s.groupID == "" {
		s.logger.Debug("notify: support group not configured, skipping escalation",
			"chat_id", user.ChatID)
		return
	}

	msg := formatEscalation(user, text)
	if err := s.sender.Send(ctx, s.groupID, msg); err != nil {
		s.logger.Error("notify: escalation delivery failed",
			"error", err,
			"chat_id", user.ChatID)
		return
	}
	s.logger.Info("notify: request escalated to operators", "chat_id", user.ChatID)
}

func formatEscalation(user UserProfile, text string) string {
	var b strings.Builder
	b.WriteString("👤 Request from user ")
	if user.DisplayName != "" {
		b.WriteString(user.DisplayName)
		b.WriteString(" ")
	}
	if user.Username != "" {
		fmt.Fprintf(&b, "(@%s, id %s)", user.Username, user.ChatID)
	} else {
		fmt.Fprintf(&b, "(id %s)", user.ChatID)
	}
	b.WriteString(":\n\n")
	b.WriteString(text)
	return b.String()
}
