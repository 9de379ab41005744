package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/leadline/internal/providers"
)

type fakeProvider struct {
	content string
	err     error
}

func (f *fakeProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.content}, nil
}

func (f *fakeProvider) DefaultModel() string { return "fake" }
func (f *fakeProvider) Name() string         { return "fake" }

func TestParseSemantic(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantIntent    Intent
		wantSentiment Sentiment
		wantErr       bool
	}{
		{
			name:          "plain json",
			raw:           `{"intent": "calendar", "sentiment": "positive", "profile_id": ""}`,
			wantIntent:    IntentCalendar,
			wantSentiment: SentimentPositive,
		},
		{
			name:          "code fence",
			raw:           "```json\n{\"intent\": \"payment\", \"sentiment\": \"neutral\"}\n```",
			wantIntent:    IntentPayment,
			wantSentiment: SentimentNeutral,
		},
		{
			name:          "leading prose",
			raw:           `Sure! Here is the classification: {"intent": "zoom", "sentiment": "neutral"}`,
			wantIntent:    IntentZoom,
			wantSentiment: SentimentNeutral,
		},
		{
			name:          "unknown intent degrades to general",
			raw:           `{"intent": "teleport", "sentiment": "neutral"}`,
			wantIntent:    IntentGeneral,
			wantSentiment: SentimentNeutral,
		},
		{
			name:          "unknown sentiment degrades to neutral",
			raw:           `{"intent": "general", "sentiment": "ecstatic"}`,
			wantIntent:    IntentGeneral,
			wantSentiment: SentimentNeutral,
		},
		{
			name:          "mixed case is normalized",
			raw:           `{"intent": "Tasks", "sentiment": "FRUSTRATED"}`,
			wantIntent:    IntentTasks,
			wantSentiment: SentimentFrustrated,
		},
		{
			name:    "no json at all",
			raw:     "I cannot classify that.",
			wantErr: true,
		},
		{
			name:    "broken json",
			raw:     `{"intent": "general", `,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseSemantic(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", res.Intent, tt.wantIntent)
			}
			if res.Sentiment != tt.wantSentiment {
				t.Errorf("sentiment = %q, want %q", res.Sentiment, tt.wantSentiment)
			}
		})
	}
}

func TestClassifyDegradesToGeneral(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("service down")}},
		{"malformed response", &fakeProvider{content: "not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.provider, "fake", nil, nil)
			res := c.Classify(context.Background(), "+15551230001", "hello there", false)
			if res.Intent != IntentGeneral {
				t.Errorf("intent = %q, want general", res.Intent)
			}
			if res.Sentiment != SentimentNeutral {
				t.Errorf("sentiment = %q, want neutral", res.Sentiment)
			}
		})
	}
}

func TestClassifySemanticResult(t *testing.T) {
	p := &fakeProvider{content: `{"intent": "voice_call", "sentiment": "positive", "profile_id": "sales"}`}
	c := New(p, "fake", nil, []CallProfile{{ID: "sales", Name: "Sales"}})
	res := c.Classify(context.Background(), "+15551230001", "give me a ring about the quote", false)
	if res.Intent != IntentVoiceCall {
		t.Errorf("intent = %q, want voice_call", res.Intent)
	}
	if res.ProfileID != "sales" {
		t.Errorf("profile_id = %q, want sales", res.ProfileID)
	}
	if res.FastPath {
		t.Error("semantic result must not be marked fast-path")
	}
}
