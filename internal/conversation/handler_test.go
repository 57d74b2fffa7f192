package conversation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

func newTestHandler(t *testing.T, model *fakeModel) *Handler {
	t.Helper()
	f := newServiceFixture(t, model, ServiceConfig{DailyLimit: 20})
	return NewHandler(f.service, logging.Default())
}

func TestMessageEndpointReturnsAnswer(t *testing.T) {
	h := newTestHandler(t, &fakeModel{content: `{"answer": "Hello Ivan"}`})

	body := `{"chat_id": "555", "username": "ivan", "text": "hi"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Message(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp answerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Hello Ivan" {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
}

func TestMessageEndpointRejectsMissingFields(t *testing.T) {
	h := newTestHandler(t, &fakeModel{content: `{"answer": "ok"}`})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"text": "hi"}`))
	rec := httptest.NewRecorder()
	h.Message(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing chat_id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	h.Message(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid body, got %d", rec.Code)
	}
}

func TestResetEndpointReturnsGreeting(t *testing.T) {
	h := newTestHandler(t, &fakeModel{content: `{"answer": "ok"}`})

	req := httptest.NewRequest(http.MethodPost, "/v1/reset", strings.NewReader(`{"chat_id": "555"}`))
	rec := httptest.NewRecorder()
	h.Reset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp answerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != greetingText {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
}
