package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"burnrate/internal/core"
)

// RuleEventMessage is the wire form of a categories change.
type RuleEventMessage struct {
	ID        string             `json:"id"`
	Type      core.RuleEventType `json:"type"`
	Category  string             `json:"category"`
	Keyword   string             `json:"keyword,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewRuleEventMessage builds a message from ev, stamping it now when ev has no timestamp.
func NewRuleEventMessage(ev core.RuleEvent) *RuleEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &RuleEventMessage{
		ID:        ev.ID,
		Type:      ev.Type,
		Category:  ev.Category,
		Keyword:   ev.Keyword,
		Timestamp: ts,
	}
}

func (m *RuleEventMessage) Event() core.RuleEvent {
	return core.RuleEvent{
		ID:        m.ID,
		Type:      m.Type,
		Category:  m.Category,
		Keyword:   m.Keyword,
		Timestamp: m.Timestamp,
	}
}

func (m *RuleEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RuleEventMessageFromJSON decodes a message; type and category are required.
func RuleEventMessageFromJSON(data []byte) (*RuleEventMessage, error) {
	var msg RuleEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("rule event without type")
	}
	if msg.Category == "" {
		return nil, errors.New("rule event without category")
	}
	return &msg, nil
}
