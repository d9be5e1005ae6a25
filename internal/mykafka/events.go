package mykafka

import "time"

type Event struct {
	Type       string         `json:"type"`
	UserID     uint           `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func NewEvent(typ string, userID uint, data map[string]any) Event {
	return Event{Type: typ, UserID: userID, OccurredAt: time.Now().UTC(), Data: data}
}
