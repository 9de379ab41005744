package classify

// Intent is the closed set of routable intents. The dispatch registry is
// checked for exhaustiveness against AllIntents at startup.
type Intent string

const (
	IntentGeneral       Intent = "general"   // default knowledge/Q&A
	IntentCalendar      Intent = "calendar"  // booking and availability
	IntentDocument      Intent = "document"  // document creation
	IntentVoiceCall     Intent = "voice_call"
	IntentImage         Intent = "image"
	IntentVision        Intent = "vision"    // inbound media analysis
	IntentCampaign      Intent = "campaign"  // mass send
	IntentPlaces        Intent = "places"    // map/place lookup
	IntentDiagnostics   Intent = "diagnostics"
	IntentScheduledSend Intent = "scheduled_send"
	IntentZoom          Intent = "zoom"
	IntentPayment       Intent = "payment"
	IntentContacts      Intent = "contacts" // contact management / relaying messages
	IntentTasks         Intent = "tasks"    // task list management
)

// AllIntents returns every routable intent.
func AllIntents() []Intent {
	return []Intent{
		IntentGeneral, IntentCalendar, IntentDocument, IntentVoiceCall,
		IntentImage, IntentVision, IntentCampaign, IntentPlaces,
		IntentDiagnostics, IntentScheduledSend, IntentZoom, IntentPayment,
		IntentContacts, IntentTasks,
	}
}

// Valid reports whether s names a known intent.
func (i Intent) Valid() bool {
	for _, known := range AllIntents() {
		if i == known {
			return true
		}
	}
	return false
}

// Sentiment labels produced by classification.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentNegative   Sentiment = "negative"
	SentimentFrustrated Sentiment = "frustrated"
)

// Hostile reports whether the sentiment should trip the sentinel.
func (s Sentiment) Hostile() bool {
	return s == SentimentNegative || s == SentimentFrustrated
}

// Result is the classification outcome for one inbound message.
type Result struct {
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
	// ProfileID selects a registered call-capable profile, when the
	// semantic classifier picked one for a voice_call intent.
	ProfileID string `json:"profile_id,omitempty"`
	// FastPath marks results produced by deterministic rules.
	FastPath bool `json:"fast_path,omitempty"`
}
