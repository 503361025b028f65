// Package mail sends transactional email through the Mailjet send API.
// Sending is strictly best-effort: failures are returned for logging by the
// caller and never reach the business request.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultEndpoint = "https://api.mailjet.com/v3.1/send"
	sendTimeout     = 15 * time.Second
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	TextPart string
	HTMLPart string
}

// address is the Mailjet address envelope.
type address struct {
	Email string `json:"Email"`
}

// apiMessage is one entry of the Mailjet v3.1 Messages array.
type apiMessage struct {
	From     address   `json:"From"`
	To       []address `json:"To"`
	Subject  string    `json:"Subject"`
	TextPart string    `json:"TextPart"`
	HTMLPart string    `json:"HTMLPart,omitempty"`
}

// envelope is the Mailjet v3.1 request body.
type envelope struct {
	Messages []apiMessage `json:"Messages"`
}

// Mailer posts messages to Mailjet with basic-auth credentials.
type Mailer struct {
	endpoint   string
	publicKey  string
	privateKey string
	from       string
	client     *http.Client
	log        *slog.Logger
}

// New builds a Mailer. Empty credentials are allowed: Send then logs and
// returns without calling the API.
func New(publicKey, privateKey, from string, log *slog.Logger) *Mailer {
	return &Mailer{
		endpoint:   defaultEndpoint,
		publicKey:  publicKey,
		privateKey: privateKey,
		from:       from,
		client:     &http.Client{Timeout: sendTimeout},
		log:        log,
	}
}

// WithEndpoint overrides the API endpoint; used by tests.
func (m *Mailer) WithEndpoint(url string) *Mailer {
	m.endpoint = url
	return m
}

// Send posts one message. The error return is for the caller's log only.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if m.publicKey == "" || m.privateKey == "" {
		m.log.Warn("mail non envoyé: identifiants Mailjet absents", "subject", msg.Subject)
		return nil
	}

	env := envelope{Messages: []apiMessage{{
		From:     address{Email: m.from},
		To:       []address{{Email: msg.To}},
		Subject:  msg.Subject,
		TextPart: msg.TextPart,
		HTMLPart: msg.HTMLPart,
	}}}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal mailjet envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mailjet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(m.publicKey, m.privateKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("post mailjet: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailjet responded %d: %s", resp.StatusCode, detail)
	}
	m.log.Info("mail envoyé", "to", msg.To, "subject", msg.Subject)
	return nil
}
