package notification

import (
	"encoding/json"
	"time"
)

// Notification is a persisted event delivered to a profile. Payload holds
// the originating record as raw JSON so clients can render context.
type Notification struct {
	ID        int64           `db:"id" json:"id"`
	ProfileID int64           `db:"profile_id" json:"profile_id"`
	Kind      string          `db:"kind" json:"kind"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	ReadAt    *time.Time      `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// WSMessage is the frame pushed over a live websocket connection
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
