package classify

import (
	"regexp"
)

// Deterministic fast-path rules. These run before any semantic call so
// safety-relevant routing stays off the probabilistic path.

var (
	// Numbered list items: "1. buy milk" / "2) call mom".
	numberedItemRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*\S`)

	// Time-of-day references disqualify the task-list rule; a numbered
	// list with times is usually a schedule, not a task dump.
	timeOfDayRe = regexp.MustCompile(`(?i)\b(\d{1,2}(:\d{2})?\s*(am|pm)|noon|midnight|o'?clock|morning|afternoon|evening|tonight)\b`)

	// "text/call/contact/message <phone>".
	phoneVerbRe = regexp.MustCompile(`(?i)\b(text|call|contact|message)\b[\s:]*\+?\(?\d[\d\s().-]{6,}`)
)

// MatchRules applies the deterministic rules to one inbound message.
// Returns (result, true) when a rule fires.
func MatchRules(body string, hasAttachment bool, recentContactFollowUp bool) (Result, bool) {
	// Media always routes to vision regardless of the text.
	if hasAttachment {
		return Result{Intent: IntentVision, Sentiment: SentimentNeutral, FastPath: true}, true
	}

	if phoneVerbRe.MatchString(body) {
		return Result{Intent: IntentContacts, Sentiment: SentimentNeutral, FastPath: true}, true
	}

	// A reply shortly after a contact-management exchange continues that
	// flow ("here's the number" → "and what should I say?").
	if recentContactFollowUp {
		return Result{Intent: IntentContacts, Sentiment: SentimentNeutral, FastPath: true}, true
	}

	if len(numberedItemRe.FindAllStringIndex(body, 3)) >= 2 && !timeOfDayRe.MatchString(body) {
		return Result{Intent: IntentTasks, Sentiment: SentimentNeutral, FastPath: true}, true
	}

	return Result{}, false
}
