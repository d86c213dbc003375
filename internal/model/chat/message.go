package chat

import "time"

// SystemSender is the reserved sender identifier for records the gateway
// fabricates itself (the welcome message). It never collides with a real
// participant because session identities are uuid-derived.
const SystemSender = "System"

// Message is the normalized display record the UI renders. Records are
// created once and never mutated; store order is arrival order.
type Message struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"originalText,omitempty"`
	DisplayText  string    `json:"displayText"`
	SenderID     string    `json:"senderId"`
	Timestamp    time.Time `json:"timestamp"`
	IsTranslated bool      `json:"isTranslated"`
	SourceLang   string    `json:"sourceLang,omitempty"`
	TargetLang   string    `json:"targetLang,omitempty"`
}

// SystemMessage builds a system-originated record with identical original
// and display text.
func SystemMessage(id, text string, at time.Time) Message {
	return Message{
		ID:           id,
		OriginalText: text,
		DisplayText:  text,
		SenderID:     SystemSender,
		Timestamp:    at,
	}
}
