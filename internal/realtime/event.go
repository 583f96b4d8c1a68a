package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

const Channel = "table_changes"

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// WatchedTables are the tables whose triggers publish on Channel.
var WatchedTables = []string{"products", "orders", "item_submissions"}

// ChangeEvent is one row change published by notify_table_change().
type ChangeEvent struct {
	Table           string    `json:"table"`
	Type            string    `json:"type"`
	RecordID        string    `json:"record_id"`
	Status          string    `json:"status,omitempty"`
	OldStatus       string    `json:"old_status,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp"`
}

func ParseChange(payload string) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, fmt.Errorf("decode change payload: %w", err)
	}
	switch ev.Type {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return nil, fmt.Errorf("unknown change type %q", ev.Type)
	}
	if ev.Table == "" {
		return nil, fmt.Errorf("change payload has no table")
	}
	return &ev, nil
}

// Message types sent to websocket subscribers.
const (
	MessageChange = "postgres_changes"
	MessageStatus = "status"
)

// Subscription states reported by Status and to subscribers.
const (
	StatusConnecting = "CONNECTING"
	StatusSubscribed = "SUBSCRIBED"
	StatusError      = "CHANNEL_ERROR"
	StatusClosed     = "CLOSED"
)

type Message struct {
	Type      string       `json:"type"`
	Event     *ChangeEvent `json:"event,omitempty"`
	Status    string       `json:"status,omitempty"`
	Timestamp string       `json:"timestamp"`
}
