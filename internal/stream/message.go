package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// TypeSystemEvent tags server-initiated broadcasts of economy changes.
	TypeSystemEvent = "system_event"

	EventResourceTransferred = "resource_transferred"
	EventCheckin             = "checkin"
	EventPurchase            = "purchase"
)

// Message is one decoded push-channel value. Data stays raw until a consumer
// recognizes the shape; unrecognized messages are ignored, never an error.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}
	msg.Type = strings.TrimSpace(msg.Type)
	if msg.Type == "" {
		return Message{}, fmt.Errorf("invalid message (empty type)")
	}
	return msg, nil
}

// SystemEvent returns the payload event name when the message is a
// system-event envelope.
func (m Message) SystemEvent() (string, bool) {
	if m.Type != TypeSystemEvent || len(m.Data) == 0 {
		return "", false
	}
	var payload struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(m.Data, &payload); err != nil {
		return "", false
	}
	event := strings.TrimSpace(payload.Event)
	if event == "" {
		return "", false
	}
	return event, true
}

// TransferPayload is the body of a resource_transferred system event. The
// name fields are optional; display falls back to Agent#<id>.
type TransferPayload struct {
	FromAgentID   int    `json:"from_agent_id"`
	FromAgentName string `json:"from_agent_name"`
	ToAgentID     int    `json:"to_agent_id"`
	ToAgentName   string `json:"to_agent_name"`
	ResourceType  string `json:"resource_type"`
	Quantity      int    `json:"quantity"`
	Timestamp     string `json:"timestamp"`
}

type CheckinPayload struct {
	AgentID   int    `json:"agent_id"`
	AgentName string `json:"agent_name"`
	JobTitle  string `json:"job_title"`
	Reward    int    `json:"reward"`
	Timestamp string `json:"timestamp"`
}

type PurchasePayload struct {
	AgentID   int    `json:"agent_id"`
	AgentName string `json:"agent_name"`
	ItemName  string `json:"item_name"`
	Price     int    `json:"price"`
	Timestamp string `json:"timestamp"`
}
