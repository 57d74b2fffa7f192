package conversation

import (
	"os"
	"strings"

	"github.com/atlas-develop/clinic-assistant/internal/llm"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

const fallbackPersona = "You are an assistant for a medical clinic. You help patients book, reschedule and cancel appointments."

// LoadSystemPrompt reads the persona file at path. A missing or unreadable
// file falls back to a minimal hardcoded persona and logs once.
func LoadSystemPrompt(path string, logger *logging.Logger) string {
	if logger == nil {
		logger = logging.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("system prompt file unreadable, using fallback persona",
			"error", err, "path", path)
		return fallbackPersona
	}
	return strings.TrimSpace(string(raw))
}

// domainFacts are fixed illustrative turns demonstrating the answer style the
// model is expected to keep: addresses as dash lists, slots and staff as
// structured id-bearing records.
func domainFacts() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleAssistant, Content: "Appointments are available at the following addresses:\n" +
			"'addresses': [\n" +
			"  'address_id': '11', 'address_name': '15 Academician Korolev St., Moscow',\n" +
			"  'address_id': '12', 'address_name': '28 Nevsky Prospect, Saint Petersburg',\n" +
			"],"},
		{Role: llm.RoleUser, Content: "Good. When you offer me an address, list every address on its own line with a dash!\nWhat times are available in Saint Petersburg?"},
		{Role: llm.RoleAssistant, Content: "In Saint Petersburg (address_id=12) you can book from 09:00 to 20:00 at one-hour intervals on 15.10.2025 and 22.10.2025, in detail:\n" +
			`{"event_id": "146", "date":"2025-10-15", "time":"09:00"},` + "\n" +
			`{"event_id": "147", "date":"2025-10-15", "time":"10:00"},` + "\n" +
			`{"event_id": "148", "date":"2025-10-15", "time":"11:00"},` + "\n" +
			`{"event_id": "158", "date":"2025-10-22", "time":"09:00"},` + "\n" +
			`{"event_id": "159", "date":"2025-10-22", "time":"10:00"},`},
		{Role: llm.RoleUser, Content: "What times are available in Moscow?"},
		{Role: llm.RoleAssistant, Content: "In Moscow (address_id=11) you can book from 10:00 to 16:00 at one-hour intervals on 20.10.2025 and 30.10.2025, in detail:\n" +
			`{"event_id": "170", "date":"2025-10-20", "time":"10:00"},` + "\n" +
			`{"event_id": "171", "date":"2025-10-20", "time":"11:00"},` + "\n" +
			`{"event_id": "177", "date":"2025-10-30", "time":"10:00"},`},
		{Role: llm.RoleUser, Content: "Which doctor sees patients in Moscow?"},
		{Role: llm.RoleAssistant, Content: "In Moscow (address_id=11) appointments are held by {'doctor_id': 1, 'fio': 'Ivan Sokolov', 'desc': 'Physical therapy doctor, 19 years of experience'}"},
		{Role: llm.RoleUser, Content: "Which doctor sees patients in Saint Petersburg?"},
		{Role: llm.RoleAssistant, Content: "In Saint Petersburg (address_id=12) appointments are held by {'doctor_id': 2, 'fio': 'Vadim Karchevsky', 'desc': 'Neurologist, 9 years of experience'}"},
	}
}
