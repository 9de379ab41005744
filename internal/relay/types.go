package relay

import "errors"

// WebhookEvent is the raw inbound event posted by the messaging gateway.
type WebhookEvent struct {
	From        string `json:"From"`
	Body        string `json:"Body"`
	ContactName string `json:"contact_name,omitempty"`
	NumMedia    int    `json:"NumMedia,omitempty"`
	MediaURL0   string `json:"MediaUrl0,omitempty"`
}

// ErrBadRequest marks validation failures the HTTP layer should answer
// with a 400 and a structured error.
var ErrBadRequest = errors.New("bad request")

// TurnResult is what a completed turn hands back to the gateway caller.
// Reply is empty for terminal access outcomes (silent acknowledgement).
type TurnResult struct {
	Reply   string  `json:"response"`
	Outcome Outcome `json:"-"`
}

// CriticalFailureReply is returned when anything escapes the pipeline's
// containment. The caller always gets a response body, never a 5xx.
const CriticalFailureReply = "We're experiencing technical difficulties. A team member has been notified and will follow up with you shortly."
