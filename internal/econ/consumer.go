package econ

import (
	"encoding/json"
	"fmt"
	"time"

	"citydesk/internal/stream"
)

// Consumer bridges the push channel into the local state: a recognized
// transfer event lands in the history log and invalidates the overview, so
// changes caused by other parties show up without a locally issued request.
// Duplicate or out-of-order deliveries are appended as-is (at-least-once
// semantics; deduplication is the backend's concern).
type Consumer struct {
	history *HistoryLog
	refresh func()
}

func NewConsumer(history *HistoryLog, refresh func()) *Consumer {
	if refresh == nil {
		refresh = func() {}
	}
	return &Consumer{history: history, refresh: refresh}
}

// HandleMessage inspects one decoded push message. Messages of other shapes
// are ignored.
func (c *Consumer) HandleMessage(msg stream.Message) {
	event, ok := msg.SystemEvent()
	if !ok {
		return
	}
	switch event {
	case stream.EventResourceTransferred:
		var p stream.TransferPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.history.Append(TransferRecord{
			FromName:     displayName(p.FromAgentName, p.FromAgentID),
			ToName:       displayName(p.ToAgentName, p.ToAgentID),
			ResourceType: p.ResourceType,
			Quantity:     p.Quantity,
			Time:         LocalClock(p.Timestamp),
		})
		c.refresh()
	case stream.EventCheckin, stream.EventPurchase:
		// Credits changed somewhere; the snapshot is refetched wholesale.
		c.refresh()
	}
}

func displayName(name string, id int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Agent#%d", id)
}

var eventTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// LocalClock renders an event timestamp as local time-of-day. Unparseable
// input falls back to the raw string rather than dropping the entry.
func LocalClock(ts string) string {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("15:04:05")
		}
	}
	return ts
}
