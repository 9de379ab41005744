package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/dispatch"
)

// HTTPCapability invokes an external handler capability (calendar,
// document, image, places, zoom, payment, voice call, campaign,
// scheduled send) over its HTTP contract: POST the turn context,
// receive {response}. Capabilities are out-of-process by design; this
// client is the whole of what the core knows about them.
type HTTPCapability struct {
	name     string
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPCapability(name, endpoint, token string) *HTTPCapability {
	return &HTTPCapability{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *HTTPCapability) Name() string { return h.name }

type capabilityRequest struct {
	Sender      string `json:"sender"`
	Body        string `json:"body"`
	DisplayName string `json:"display_name,omitempty"`
	OrgID       string `json:"org_id"`
	NumMedia    int    `json:"num_media,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`
	Goal        string `json:"goal,omitempty"`
	ProfileID   string `json:"profile_id,omitempty"`
}

func (h *HTTPCapability) Handle(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
	if h.endpoint == "" {
		return "", fmt.Errorf("%s: capability not configured", h.name)
	}

	req := capabilityRequest{
		Sender:      tc.Sender,
		Body:        tc.Body,
		DisplayName: tc.DisplayName,
		OrgID:       tc.OrgID,
		NumMedia:    tc.NumMedia,
		MediaURL:    tc.MediaURL,
		ProfileID:   tc.ProfileID,
	}
	if tc.Goal != nil {
		req.Goal = tc.Goal.Description
	}

	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", h.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", h.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", h.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%s: http %d: %s", h.name, resp.StatusCode, string(body))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", h.name, err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("%s: empty response", h.name)
	}
	return parsed.Response, nil
}
