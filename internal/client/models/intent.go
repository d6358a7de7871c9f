package models

import "fmt"

// IntentKind classifies a mutation intent.
type IntentKind string

const (
	IntentCreate IntentKind = "create"
	IntentUpdate IntentKind = "update"
	IntentDelete IntentKind = "delete"
	IntentMove   IntentKind = "move"
)

// IntentStatus tracks an intent through
// issued → applied-locally → confirmed | rejected → rolled-back.
type IntentStatus string

const (
	StatusIssued     IntentStatus = "issued"
	StatusApplied    IntentStatus = "applied-locally"
	StatusConfirmed  IntentStatus = "confirmed"
	StatusRejected   IntentStatus = "rejected"
	StatusRolledBack IntentStatus = "rolled-back"
)

// Intent is a request to create, update, delete or move one entity.
type Intent struct {
	ID     string
	Kind   IntentKind
	Status IntentStatus

	// TargetID is the entity addressed by update/delete/move; for create it
	// is the placeholder id.
	TargetID string

	// Entity carries the new field values for create/update. An update
	// leaves fields it does not name untouched.
	Entity Entity
	// Clear lists fields an update removes.
	Clear []string

	// From and To are collection indices for a move.
	From, To int
}

func (i Intent) String() string {
	switch i.Kind {
	case IntentMove:
		return fmt.Sprintf("%s %s %d->%d", i.Kind, i.TargetID, i.From, i.To)
	default:
		return fmt.Sprintf("%s %s", i.Kind, i.TargetID)
	}
}
