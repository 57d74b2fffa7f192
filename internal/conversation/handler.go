package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

// Handler wires HTTP requests from the messaging gateway to the service.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("conversation: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// Message handles POST /v1/messages.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req Inbound
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ChatID == "" || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "chat_id and text are required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.HandleMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

// Reset handles POST /v1/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req Inbound
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode reset request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ChatID == "" {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.ResetDialog(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to reset dialog", "error", err)
		http.Error(w, "Failed to reset dialog", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
