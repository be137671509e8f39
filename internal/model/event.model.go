package model

import "time"

type EventType string

const (
	EventQueued       EventType = "QUEUED"
	EventSent         EventType = "SENT"
	EventFailed       EventType = "FAILED"
	EventDelivered    EventType = "DELIVERED"
	EventClicked      EventType = "CLICKED"
	EventUnsubscribed EventType = "UNSUBSCRIBED"
)

// Event is an append-only audit record for a review request.
type Event struct {
	ID              int64     `json:"id"`
	BusinessID      string    `json:"businessId"`
	ReviewRequestID string    `json:"reviewRequestId"`
	Type            EventType `json:"type"`
	Detail          string    `json:"detail,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Suppression struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Channel    Channel   `json:"channel"`
	Contact    string    `json:"contact"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}
