package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"irgate/internal/platform/config"
	"irgate/pkg/platform/sentinel"
)

// HTTPMailer sends mail through an HTTP JSON delivery provider.
type HTTPMailer struct {
	cfg    config.MailConfig
	client *http.Client
}

// NewHTTPMailer constructs a mailer from delivery configuration.
func NewHTTPMailer(cfg config.MailConfig) *HTTPMailer {
	return &HTTPMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send posts the message to the provider and returns its message id. A
// missing id in the response is tolerated; one is assigned locally so the
// audit trail always has a handle on the send.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) (Result, error) {
	if msg.From == "" {
		msg.From = m.cfg.FromAddress
	}
	if msg.FromName == "" {
		msg.FromName = m.cfg.FromName
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = m.cfg.ReplyTo
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("mail provider request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("mail provider status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(body), sentinel.ErrUnavailable)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil || result.MessageID == "" {
		result.MessageID = uuid.NewString()
	}
	return result, nil
}
