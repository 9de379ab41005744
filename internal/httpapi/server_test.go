package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/leadline/internal/relay"
)

func newTestServer(token string, rpm int) *Server {
	return NewServer(ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		Token:        token,
		RateLimitRPM: rpm,
		Version:      "test",
	}, relay.NewPipeline(relay.PipelineConfig{}))
}

func postWebhook(t *testing.T, mux *http.ServeMux, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/sms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	mux := newTestServer("", 0).BuildMux()
	rec := postWebhook(t, mux, "not json", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	mux := newTestServer("", 0).BuildMux()
	rec := postWebhook(t, mux, `{"From": "+15551230001"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("400 must carry a structured error message")
	}
}

func TestWebhookAuth(t *testing.T) {
	mux := newTestServer("secret", 0).BuildMux()

	rec := postWebhook(t, mux, `{"From": "+15551230001", "Body": "hi"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = postWebhook(t, mux, `{"From": "+15551230001", "Body": "hi"}`, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}

	// Correct token passes auth (and then fails validation downstream,
	// which is fine for this test).
	rec = postWebhook(t, mux, `{"From": "+15551230001"}`, "secret")
	if rec.Code == http.StatusUnauthorized {
		t.Error("valid token must pass auth")
	}
}

func TestWebhookRateLimit(t *testing.T) {
	mux := newTestServer("", 1).BuildMux()

	postWebhook(t, mux, `{"From": "+15551230001"}`, "")
	rec := postWebhook(t, mux, `{"From": "+15551230001"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	mux := newTestServer("secret", 0).BuildMux()

	// Health is unauthenticated.
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}
