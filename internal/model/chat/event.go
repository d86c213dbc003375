package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event mirrors the backend's relayed chat payload. The backend is loosely
// typed: id may arrive as a string or a number, created_at as RFC 3339 or an
// epoch value, and several fields may be absent entirely.
type Event struct {
	ID             EventID         `json:"id"`
	ChatID         json.RawMessage `json:"chat_id,omitempty"`
	FromUser       string          `json:"from_user"`
	ToUser         json.RawMessage `json:"to_user,omitempty"`
	OriginalText   string          `json:"original_text"`
	TranslatedText string          `json:"translated_text"`
	SrcLang        string          `json:"src_lang"`
	TgtLang        string          `json:"tgt_lang"`
	CreatedAt      *EventTime      `json:"created_at,omitempty"`
}

// ParseEvent decodes a raw frame into an Event. A failure here means the
// frame must be dropped, never surfaced to the user.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode chat event: %w", err)
	}
	return ev, nil
}

// Normalize maps the wire event onto a display record. Missing ids get a
// locally generated one; a missing created_at defaults to receivedAt, never
// to a fabricated past instant.
func (ev Event) Normalize(receivedAt time.Time) Message {
	id := ev.ID.String()
	if id == "" {
		id = uuid.NewString()
	}

	display := ev.TranslatedText
	if display == "" {
		display = ev.OriginalText
	}

	ts := receivedAt
	if ev.CreatedAt != nil {
		ts = ev.CreatedAt.Time
	}

	return Message{
		ID:           id,
		OriginalText: ev.OriginalText,
		DisplayText:  display,
		SenderID:     ev.FromUser,
		Timestamp:    ts,
		IsTranslated: ev.TranslatedText != "" && ev.TranslatedText != ev.OriginalText,
		SourceLang:   ev.SrcLang,
		TargetLang:   ev.TgtLang,
	}
}

// EventID accepts both JSON strings and numbers.
type EventID string

func (id *EventID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*id = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("event id must be string or number: %w", err)
	}
	*id = EventID(n.String())
	return nil
}

func (id EventID) String() string { return string(id) }

// EventTime accepts RFC 3339 strings as well as epoch seconds or epoch
// milliseconds (values past 1e12 are treated as milliseconds).
type EventTime struct {
	time.Time
}

func (et *EventTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse created_at %q: %w", s, err)
		}
		et.Time = parsed
		return nil
	}

	epoch, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("created_at must be RFC3339 or epoch: %w", err)
	}
	if epoch > 1e12 {
		et.Time = time.UnixMilli(int64(epoch))
	} else {
		et.Time = time.Unix(int64(epoch), 0)
	}
	return nil
}
