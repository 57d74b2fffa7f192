package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atlas-develop/clinic-assistant/internal/booking"
	"github.com/atlas-develop/clinic-assistant/internal/llm"
)

// promptBuilder assembles the ordered message list for one model call:
// system message (persona + live timestamp + rolling summary + seed turns),
// static domain facts, the current booking snapshot as synthetic turns,
// bounded dialog history, and a final strict-JSON instruction embedding the
// raw user text and retrieved snippets.
type promptBuilder struct {
	persona string
	facts   []llm.Message
}

func newPromptBuilder(persona string) *promptBuilder {
	return &promptBuilder{
		persona: persona,
		facts:   domainFacts(),
	}
}

type promptInput struct {
	Now            time.Time
	Summary        string
	SummarySeeds   []llm.Message
	SelfBookings   []booking.View
	FriendBookings []booking.FriendView
	History        []llm.Message
	UserText       string
	Snippets       string
}

func (b *promptBuilder) Build(in promptInput) []llm.Message {
	messages := make([]llm.Message, 0, len(b.facts)+len(in.History)+6)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: b.systemMessage(in),
	})
	messages = append(messages, b.facts...)
	messages = append(messages, bookingSnapshot(in.SelfBookings, in.FriendBookings)...)
	messages = append(messages, in.History...)
	messages = append(messages, llm.Message{
		Role: llm.RoleUser,
		Content: fmt.Sprintf(
			"Answer strictly in JSON format. Here is the user's message: %s\n\nContext from the knowledge base: %s",
			in.UserText, in.Snippets),
	})
	return messages
}

func (b *promptBuilder) systemMessage(in promptInput) string {
	var seeds strings.Builder
	for i, m := range in.SummarySeeds {
		if i > 0 {
			seeds.WriteString("\n")
		}
		seeds.WriteString(m.Role + ": " + m.Content)
	}
	return b.persona + fmt.Sprintf(
		"\n\n🕒 Current date and time: %s"+
			"\n\n📌 Current summary information:\n%s\n\n"+
			"📌 Last pair of messages to fold into the summary:\n%s",
		in.Now.Format("2006-01-02 15:04:05"), in.Summary, seeds.String())
}

// bookingSnapshot renders the caller's own and friend bookings as two
// synthetic assistant/user exchanges so the model treats them as established
// conversation facts.
func bookingSnapshot(self []booking.View, friends []booking.FriendView) []llm.Message {
	selfContent := "You are not booked for an appointment yet!"
	if len(self) > 0 {
		selfContent = "You are booked for an appointment:\n" + renderViews(self)
	}
	friendContent := "You have not booked anyone for an appointment!"
	if len(friends) > 0 {
		friendContent = "You have booked the following appointments:\n" + renderViews(friends)
	}
	return []llm.Message{
		{Role: llm.RoleAssistant, Content: selfContent},
		{Role: llm.RoleUser, Content: "Are any of my friends, relatives or acquaintances booked for an appointment?"},
		{Role: llm.RoleAssistant, Content: friendContent},
		{Role: llm.RoleUser, Content: "Got it"},
	}
}

func renderViews(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
