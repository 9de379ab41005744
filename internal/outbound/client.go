package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client pushes messages through the external messaging gateway's send
// API. Used by the notification escalator and by handlers that must
// message someone other than the original sender.
type Client struct {
	apiBase string
	token   string
	source  string
	client  *http.Client
}

func NewClient(apiBase, token, source string) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		source:  source,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a gateway endpoint was provided.
func (c *Client) Configured() bool { return c != nil && c.apiBase != "" }

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Send delivers one message. Returns an error for callers that care;
// most call sites treat delivery as fire-and-forget via SendDetached.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	if !c.Configured() {
		return fmt.Errorf("outbound gateway not configured")
	}

	data, err := json.Marshal(sendRequest{Phone: phone, Message: message, Source: c.source})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/messages", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateway send: http %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SendDetached delivers without blocking the caller. Failures are
// logged, never surfaced into the turn.
func (c *Client) SendDetached(phone, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := c.Send(ctx, phone, message); err != nil {
			slog.Warn("outbound.send_failed", "error", err)
		}
	}()
}
