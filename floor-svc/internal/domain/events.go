package domain

import "time"

const (
	EventOrderCreated       = "order.created"
	EventItemStatusChanged  = "item.status_changed"
	EventOrderStatusChanged = "order.status_changed"
	EventTableClosed        = "table.closed"
	EventTableUpdated       = "table.updated"
)

type Event struct {
	Type       string    `json:"type"`
	TableID    int       `json:"table_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEvent(eventType string, tableID int, payload any) Event {
	return Event{
		Type:       eventType,
		TableID:    tableID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
