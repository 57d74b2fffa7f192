package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

var senderTracer = otel.Tracer("assistant.internal.transport")

// HTTPSender posts outbound chat messages to the messaging gateway's send
// endpoint.
type HTTPSender struct {
	sendURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPSender builds a sender for the gateway callback URL.
func NewHTTPSender(sendURL string, logger *logging.Logger) *HTTPSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPSender{
		sendURL: sendURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send delivers a single message to a chat, retrying transient failures.
func (s *HTTPSender) Send(ctx context.Context, chatID, text string) error {
	if s.sendURL == "" {
		return errors.New("transport: send url missing")
	}
	if chatID == "" {
		return errors.New("transport: chat id required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("transport: text required")
	}

	ctx, span := senderTracer.Start(ctx, "transport.send")
	defer span.End()
	span.SetAttributes(attribute.String("assistant.chat_id", chatID))

	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: failed to marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(bodyBytes))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("message sent", "chat_id", chatID)
				return nil
			}
			lastErr = fmt.Errorf("transport: send failed: status %d, body: %s", resp.StatusCode, body)
		}

		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			time.Sleep(sleep)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		s.logger.Error("failed to send message", "error", lastErr, "chat_id", chatID)
	}
	return lastErr
}
