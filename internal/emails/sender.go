package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const sendAPI = "https://api.brevo.com/v3/smtp/email"

// Sender sends transactional emails (welcome, invite, acceptance notices).
// All sends are best-effort: callers log failures and never roll back state.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendInvite(ctx context.Context, toEmail, inviteLink, orgName, role string) error
	SendInviteAccepted(ctx context.Context, toEmail, memberName, orgName string) error
}

// NoopSender satisfies Sender when no mail provider is configured.
type NoopSender struct{}

func (NoopSender) SendWelcome(ctx context.Context, toEmail, firstName string) error { return nil }
func (NoopSender) SendInvite(ctx context.Context, toEmail, inviteLink, orgName, role string) error {
	return nil
}
func (NoopSender) SendInviteAccepted(ctx context.Context, toEmail, memberName, orgName string) error {
	return nil
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	HTMLContent string  `json:"htmlContent"`
}

type party struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Client sends emails through the Brevo transactional API.
type Client struct {
	APIKey   string
	MailFrom string
	HTTP     *http.Client
}

func (c *Client) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@taskflow.pro"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := sendRequest{
		Sender:      party{Email: c.from(), Name: "TaskFlow Pro"},
		To:          []party{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	html := layout(fmt.Sprintf(`<p>Hi %s,</p><p>Welcome to TaskFlow Pro. Pick a plan and set up your organization to get started.</p>`, firstName))
	return c.send(ctx, toEmail, "Welcome to TaskFlow Pro", html)
}

func (c *Client) SendInvite(ctx context.Context, toEmail, inviteLink, orgName, role string) error {
	html := layout(fmt.Sprintf(`<p>You have been invited to join <strong>%s</strong> on TaskFlow Pro as %s.</p><p><a href="%s">Accept your invitation</a></p><p>This link expires in 7 days.</p>`, orgName, role, inviteLink))
	return c.send(ctx, toEmail, fmt.Sprintf("You're invited to %s", orgName), html)
}

func (c *Client) SendInviteAccepted(ctx context.Context, toEmail, memberName, orgName string) error {
	html := layout(fmt.Sprintf(`<p><strong>%s</strong> accepted your invitation and joined %s.</p>`, memberName, orgName))
	return c.send(ctx, toEmail, fmt.Sprintf("%s joined %s", memberName, orgName), html)
}
