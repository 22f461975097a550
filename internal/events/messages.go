package events

import (
	"encoding/json"
	"time"
)

// RecordEvent announces a mutation of a sale or expense record. Consumers
// fetch the current record through the API if they need more than the id.
type RecordEvent struct {
	Kind      string    `json:"kind"`   // "sale" or "expense"
	ID        string    `json:"id"`     // e.g. "SL001"
	Action    string    `json:"action"` // "created", "updated" or "deleted"
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(kind, id, action string) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON creates an event from JSON bytes.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
