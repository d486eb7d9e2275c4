package amqp

import (
	"encoding/json"
	"time"
)

// Event types published to the budget events exchange.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
	EventProjectDeleted = "project.deleted"
	EventMemberAdded    = "project.member_added"
)

// Event is a lightweight notification about a project or expense change.
// Consumers fetch full records themselves; the payload carries only
// identifiers.
type Event struct {
	Type      string    `json:"type"`
	ProjectID int64     `json:"project_id"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, projectID, expenseID, actorID int64) Event {
	return Event{
		Type:      eventType,
		ProjectID: projectID,
		ExpenseID: expenseID,
		ActorID:   actorID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes.
func EventFromJSON(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
