package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atlas-develop/clinic-assistant/internal/booking"
	"github.com/atlas-develop/clinic-assistant/internal/clients"
	"github.com/atlas-develop/clinic-assistant/internal/llm"
	"github.com/atlas-develop/clinic-assistant/internal/notify"
	"github.com/atlas-develop/clinic-assistant/internal/observability/metrics"
	"github.com/atlas-develop/clinic-assistant/internal/transcript"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

var turnTracer = otel.Tracer("assistant.internal.conversation")

const (
	apologyAnswer = "Sorry, we could not process your request. Please try again later."

	greetingText = "Hello! I am the medical center's consultant. I can help you book a group consultation. " +
		"Pick a convenient date and time from the offered slots and answer a few questions. " +
		"If you decide to reschedule or cancel your booking later, I can help with that too." +
		"\n\nWould you like to book an appointment?"
)

type clientDirectory interface {
	ResolveOrCreate(ctx context.Context, chatID string, hint clients.ProfileHint) (int64, error)
	GetSummary(ctx context.Context, clientID int64) (string, error)
	SetSummary(ctx context.Context, clientID int64, text string) error
}

type dialogStore interface {
	Append(ctx context.Context, clientID int64, role, content string, tokensIn, tokensOut int) error
	RecentHistory(ctx context.Context, clientID int64) (dialog, seeds []llm.Message, err error)
	Reset(ctx context.Context, clientID int64) error
	TodayUserTurnCount(ctx context.Context, clientID int64) (int, error)
}

type bookingLedger interface {
	Book(ctx context.Context, clientID, eventID int64, clientFIO, problem string) error
	Reschedule(ctx context.Context, clientID, newEventID int64) error
	Cancel(ctx context.Context, clientID, eventID int64) error
	BookForFriend(ctx context.Context, clientID int64, friendName, friendFIO string, eventID int64, problem string) error
	RescheduleFriend(ctx context.Context, bookingID, newEventID int64) error
	CancelFriend(ctx context.Context, bookingID int64) error
	ListActive(ctx context.Context, clientID int64) ([]booking.View, error)
	ListFriendBookings(ctx context.Context, clientID int64) ([]booking.FriendView, error)
}

type snippetFinder interface {
	Find(ctx context.Context, query string) (string, error)
}

// TranscriptSink receives conversation lines for asynchronous export.
type TranscriptSink interface {
	Enqueue(rec transcript.Record)
}

// Inbound is one chat message delivered by the messaging gateway.
type Inbound struct {
	ChatID      string `json:"chat_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	FirstName   string `json:"first_name"`
	Text        string `json:"text"`
}

// ServiceConfig carries the conversation tunables read from the environment.
type ServiceConfig struct {
	Temperature    float32
	DailyLimit     int
	UnlimitedUsers []string
	SupportGroupID string
}

// Service orchestrates one conversation turn end to end: identify the
// client, persist the user turn, enforce the daily quota, assemble the
// prompt, call the model, interpret the reply, dispatch function calls, and
// persist the final answer.
type Service struct {
	directory   clientDirectory
	dialog      dialogStore
	bookings    bookingLedger
	model       llm.Client
	retriever   snippetFinder
	dispatcher  *Dispatcher
	transcripts TranscriptSink
	prompts     *promptBuilder
	metrics     *metrics.TurnMetrics
	logger      *logging.Logger

	temperature    float32
	dailyLimit     int
	unlimited      map[string]struct{}
	supportGroupID string
}

// NewService wires the turn orchestrator. retriever and transcripts may be
// nil when those side channels are not configured.
func NewService(
	directory clientDirectory,
	dialog dialogStore,
	bookings bookingLedger,
	model llm.Client,
	retriever snippetFinder,
	notifier operatorNotifier,
	transcripts TranscriptSink,
	persona string,
	cfg ServiceConfig,
	m *metrics.TurnMetrics,
	logger *logging.Logger,
) *Service {
	if directory == nil {
		panic("conversation: client directory required")
	}
	if dialog == nil {
		panic("conversation: dialog store required")
	}
	if bookings == nil {
		panic("conversation: booking ledger required")
	}
	if model == nil {
		panic("conversation: model client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 20
	}
	unlimited := make(map[string]struct{}, len(cfg.UnlimitedUsers))
	for _, handle := range cfg.UnlimitedUsers {
		unlimited[handle] = struct{}{}
	}
	return &Service{
		directory:      directory,
		dialog:         dialog,
		bookings:       bookings,
		model:          model,
		retriever:      retriever,
		dispatcher:     NewDispatcher(bookings, dialog, notifier, m, logger),
		transcripts:    transcripts,
		prompts:        newPromptBuilder(persona),
		metrics:        m,
		logger:         logger,
		temperature:    cfg.Temperature,
		dailyLimit:     cfg.DailyLimit,
		unlimited:      unlimited,
		supportGroupID: cfg.SupportGroupID,
	}
}

// HandleMessage processes one free-text turn and returns the answer to
// deliver. Messages originating in the support group are ignored and return
// an empty answer.
func (s *Service) HandleMessage(ctx context.Context, msg Inbound) (string, error) {
	if s.supportGroupID != "" && msg.ChatID == s.supportGroupID {
		return "", nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return "", errors.New("conversation: empty message")
	}

	start := time.Now()
	ctx, span := turnTracer.Start(ctx, "conversation.turn")
	defer span.End()
	span.SetAttributes(attribute.String("assistant.chat_id", msg.ChatID))

	clientID, err := s.directory.ResolveOrCreate(ctx, msg.ChatID, clients.ProfileHint{
		Username:    msg.Username,
		DisplayName: msg.DisplayName,
		FirstName:   msg.FirstName,
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("identify_failed", time.Since(start).Seconds())
		return "", fmt.Errorf("conversation: resolve client failed: %w", err)
	}

	s.logTranscript(clientID, msg, llm.RoleUser, text)

	// The user's turn is durable before anything downstream can fail.
	if err := s.dialog.Append(ctx, clientID, llm.RoleUser, text, 0, 0); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist user turn", "client_id", clientID, "error", err)
	}

	if decline, ok := s.checkQuota(ctx, msg.ChatID, clientID); !ok {
		s.metrics.ObserveQuotaDecline()
		s.metrics.ObserveTurn("quota_declined", time.Since(start).Seconds())
		return decline, nil
	}

	messages := s.assemblePrompt(ctx, clientID, text)

	completion, err := s.model.Complete(ctx, llm.Request{
		Messages:    messages,
		Temperature: s.temperature,
		JSONOnly:    true,
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveModelFailure()
		s.logger.Error("model call failed", "client_id", clientID, "error", err)
		return s.degrade(ctx, clientID, start, llm.Usage{})
	}

	reply, err := ParseModelReply(completion.Content)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveModelFailure()
		s.logger.Error("model reply unparsable", "client_id", clientID, "error", err)
		return s.degrade(ctx, clientID, start, completion.Usage)
	}

	if reply.Summary != "" {
		if err := s.directory.SetSummary(ctx, clientID, reply.Summary); err != nil {
			s.logger.Error("failed to update summary", "client_id", clientID, "error", err)
		}
	}

	s.logTranscript(clientID, msg, llm.RoleAssistant, reply.Answer)

	answer := reply.Answer
	if len(reply.Calls) > 0 {
		actions := make([]Action, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			actions = append(actions, Classify(call))
		}
		user := notify.UserProfile{
			ChatID:      msg.ChatID,
			Username:    msg.Username,
			DisplayName: msg.DisplayName,
		}
		for _, suffix := range s.dispatcher.Dispatch(ctx, clientID, user, actions) {
			answer += "\n\n" + suffix
		}
	}

	// The final answer outlives any dispatch-triggered reset: it is appended
	// after the reset so the next turn starts from it and the summary.
	if err := s.dialog.Append(ctx, clientID, llm.RoleAssistant, answer,
		completion.Usage.PromptTokens, completion.Usage.CompletionTokens); err != nil {
		s.logger.Error("failed to persist assistant turn", "client_id", clientID, "error", err)
	}

	s.metrics.ObserveTurn("ok", time.Since(start).Seconds())
	return answer, nil
}

// ResetDialog clears the client's dialog and summary and returns the fixed
// greeting, persisted as the first assistant turn of the fresh dialog.
func (s *Service) ResetDialog(ctx context.Context, msg Inbound) (string, error) {
	if s.supportGroupID != "" && msg.ChatID == s.supportGroupID {
		return "", nil
	}
	ctx, span := turnTracer.Start(ctx, "conversation.reset")
	defer span.End()

	clientID, err := s.directory.ResolveOrCreate(ctx, msg.ChatID, clients.ProfileHint{
		Username:    msg.Username,
		DisplayName: msg.DisplayName,
		FirstName:   msg.FirstName,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("conversation: resolve client failed: %w", err)
	}
	if err := s.dialog.Reset(ctx, clientID); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("conversation: reset failed: %w", err)
	}
	if err := s.dialog.Append(ctx, clientID, llm.RoleAssistant, greetingText, 0, 0); err != nil {
		s.logger.Error("failed to persist greeting", "client_id", clientID, "error", err)
	}
	return greetingText, nil
}

// checkQuota reports whether the turn may proceed. The user turn is already
// persisted, so the current turn counts toward today's total and the limit
// trips strictly above it. Exempt handles bypass the check entirely.
func (s *Service) checkQuota(ctx context.Context, chatID string, clientID int64) (string, bool) {
	if _, exempt := s.unlimited[chatID]; exempt {
		return "", true
	}
	count, err := s.dialog.TodayUserTurnCount(ctx, clientID)
	if err != nil {
		s.logger.Error("quota count failed, allowing turn", "client_id", clientID, "error", err)
		return "", true
	}
	if count > s.dailyLimit {
		return fmt.Sprintf("You have reached the daily limit of %d requests. Please try again tomorrow.", s.dailyLimit), false
	}
	return "", true
}

// assemblePrompt gathers context with per-source degradation: a failed read
// contributes empty content and a log line, never a failed turn.
func (s *Service) assemblePrompt(ctx context.Context, clientID int64, text string) []llm.Message {
	history, seeds, err := s.dialog.RecentHistory(ctx, clientID)
	if err != nil {
		s.logger.Error("failed to read dialog history", "client_id", clientID, "error", err)
	}
	summary, err := s.directory.GetSummary(ctx, clientID)
	if err != nil {
		s.logger.Error("failed to read summary", "client_id", clientID, "error", err)
	}
	self, err := s.bookings.ListActive(ctx, clientID)
	if err != nil {
		s.logger.Error("failed to list bookings", "client_id", clientID, "error", err)
	}
	friends, err := s.bookings.ListFriendBookings(ctx, clientID)
	if err != nil {
		s.logger.Error("failed to list friend bookings", "client_id", clientID, "error", err)
	}
	snippets := ""
	if s.retriever != nil {
		if found, err := s.retriever.Find(ctx, text); err != nil {
			s.logger.Error("snippet retrieval failed", "client_id", clientID, "error", err)
		} else {
			snippets = found
		}
	}
	return s.prompts.Build(promptInput{
		Now:            time.Now(),
		Summary:        summary,
		SummarySeeds:   seeds,
		SelfBookings:   self,
		FriendBookings: friends,
		History:        history,
		UserText:       text,
		Snippets:       snippets,
	})
}

// degrade persists and returns the fixed apology after a model or parse
// failure.
func (s *Service) degrade(ctx context.Context, clientID int64, start time.Time, usage llm.Usage) (string, error) {
	if err := s.dialog.Append(ctx, clientID, llm.RoleAssistant, apologyAnswer,
		usage.PromptTokens, usage.CompletionTokens); err != nil {
		s.logger.Error("failed to persist apology turn", "client_id", clientID, "error", err)
	}
	s.metrics.ObserveTurn("model_failed", time.Since(start).Seconds())
	return apologyAnswer, nil
}

func (s *Service) logTranscript(clientID int64, msg Inbound, role, text string) {
	if s.transcripts == nil {
		return
	}
	id := strconv.FormatInt(clientID, 10)
	name := msg.Username
	if name == "" {
		name = strings.TrimSpace(msg.DisplayName)
	}
	s.transcripts.Enqueue(transcript.Record{
		Destination: transcript.Destination(id, name),
		ClientID:    id,
		Role:        role,
		Text:        text,
		When:        time.Now(),
	})
}
