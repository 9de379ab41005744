package classify

import "testing"

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		hasAttachment bool
		followUp      bool
		wantIntent    Intent
		wantMatch     bool
	}{
		{
			name:          "attachment routes to vision",
			body:          "what is this?",
			hasAttachment: true,
			wantIntent:    IntentVision,
			wantMatch:     true,
		},
		{
			name:          "attachment wins over phone verb",
			body:          "text 856-993-6360 about this",
			hasAttachment: true,
			wantIntent:    IntentVision,
			wantMatch:     true,
		},
		{
			name:       "text plus phone number",
			body:       "text 856-993-6360 that we're running late",
			wantIntent: IntentContacts,
			wantMatch:  true,
		},
		{
			name:       "call with formatted number",
			body:       "call (856) 993-6360",
			wantIntent: IntentContacts,
			wantMatch:  true,
		},
		{
			name:       "follow-up window continues contacts flow",
			body:       "tell him the garage door is fixed",
			followUp:   true,
			wantIntent: IntentContacts,
			wantMatch:  true,
		},
		{
			name:       "numbered list routes to tasks",
			body:       "1. fix the gutter\n2. order shingles\n3. invoice the Smiths",
			wantIntent: IntentTasks,
			wantMatch:  true,
		},
		{
			name:      "numbered list with times is not tasks",
			body:      "1. meet at 9am\n2. lunch at noon",
			wantMatch: false,
		},
		{
			name:      "single numbered item is not a list",
			body:      "1. just one thing",
			wantMatch: false,
		},
		{
			name:      "plain question matches nothing",
			body:      "do you have any openings next week?",
			wantMatch: false,
		},
		{
			name:      "call without a number is not contacts",
			body:      "can you call me back sometime?",
			wantMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := MatchRules(tt.body, tt.hasAttachment, tt.followUp)
			if ok != tt.wantMatch {
				t.Fatalf("match = %v, want %v", ok, tt.wantMatch)
			}
			if !ok {
				return
			}
			if res.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", res.Intent, tt.wantIntent)
			}
			if !res.FastPath {
				t.Error("rule results must be marked fast-path")
			}
		})
	}
}
