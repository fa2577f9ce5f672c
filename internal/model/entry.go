package model

import "time"

// Entry statuses.  An entry starts out waiting, is called to the counter by
// an operator and then either completes or is cancelled.  Cancelled and
// completed are terminal but the row is kept so that a returning customer
// with the same phone number can be reactivated later.
const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Lifecycle events that move an entry between statuses.
const (
	EventCall     = "call"
	EventComplete = "complete"
	EventCancel   = "cancel"
)

// transitions maps each lifecycle event to the statuses it may be applied
// from.  Anything not listed here is rejected rather than silently
// overwritten.
var transitions = map[string][]string{
	EventCall:     {StatusWaiting},
	EventComplete: {StatusCalled},
	EventCancel:   {StatusWaiting, StatusCalled},
}

// ValidTransition reports whether the given event is allowed from the
// given status.
func ValidTransition(event, fromStatus string) bool {
	allowed, ok := transitions[event]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// QueueEntry represents one customer's waitlist record as stored in the
// `queue_entries` table.  The json tags are omitted here because these
// structs are used by the repository layer; handlers define separate
// response types with the wire field names.
//
// Fields:
//  ID             – primary key identifier, assigned on creation.
//  Name           – customer name, non-empty.
//  PhoneNumber    – normalized phone number (exactly 10 digits), used as
//                   the dedup key across visits.
//  NumberOfPeople – party size, bounded [1, 15].
//  Position       – slot number among currently-waiting entries; 0 once
//                   the entry is no longer waiting.
//  Status         – one of the status constants above.
//  CreatedAt      – set on creation and again on reactivation.
//  CalledAt       – set when the entry is called; cleared on reactivation.
//  VisitCount     – number of completed visits; starts at 1 and is
//                   incremented only when an entry completes.
type QueueEntry struct {
	ID             uint64     // queue_entries.id
	Name           string     // queue_entries.name
	PhoneNumber    string     // queue_entries.phone_number
	NumberOfPeople int        // queue_entries.number_of_people
	Position       int        // queue_entries.position
	Status         string     // queue_entries.status
	CreatedAt      time.Time  // queue_entries.created_at
	CalledAt       *time.Time // queue_entries.called_at (nullable)
	VisitCount     int        // queue_entries.visit_count
}
