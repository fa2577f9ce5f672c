// Package broker defines message payloads exchanged over the message
// broker and the publisher/consumer pair around them.
package broker

// EntryCalledEvent is published when an operator calls a customer to the
// counter.  It contains enough information for downstream consumers such
// as display boards or SMS relays to act without querying the primary
// database.
type EntryCalledEvent struct {
	EntryID        uint64 `json:"entry_id"`
	Name           string `json:"name"`
	PhoneNumber    string `json:"phone_number"`
	NumberOfPeople int    `json:"number_of_people"`
	VisitCount     int    `json:"visit_count"`
	CalledAt       string `json:"called_at"`
}
