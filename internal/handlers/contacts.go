package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/outbound"
)

var relayRe = regexp.MustCompile(`(?i)\b(?:text|message|contact)\b[\s:]*(\+?\(?\d[\d\s().-]{6,}\d)\s*(.*)`)

// Normalizer turns a raw phone fragment into canonical form. Injected
// from the relay package to keep normalization in one place.
type Normalizer func(string) string

// Contacts relays messages to third parties ("text 555-201-8890 that
// we're running late"). A message without body text asks for one, which
// the classifier's follow-up window then routes back here.
type Contacts struct {
	push      *outbound.Client
	normalize Normalizer
}

func NewContacts(push *outbound.Client, normalize Normalizer) *Contacts {
	return &Contacts{push: push, normalize: normalize}
}

func (h *Contacts) Name() string { return "contacts" }

func (h *Contacts) Handle(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
	m := relayRe.FindStringSubmatch(tc.Body)
	if m == nil {
		return "Who should I reach out to? Send me a phone number and what you'd like me to say.", nil
	}

	phone := h.normalize(m[1])
	message := strings.TrimSpace(m[2])
	message = strings.TrimPrefix(message, "and say")
	message = strings.TrimPrefix(message, "saying")
	message = strings.TrimSpace(strings.TrimPrefix(message, "that"))
	if message == "" {
		return fmt.Sprintf("Got it — what should I say to %s?", phone), nil
	}

	if err := h.push.Send(ctx, phone, message); err != nil {
		return "", fmt.Errorf("contacts relay: %w", err)
	}
	return fmt.Sprintf("Done — I've sent that to %s.", phone), nil
}
