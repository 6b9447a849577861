package model

import "time"

// RequestStatus is the ordered lifecycle of a design request.  Status
// changes are forward-only: a request moves from SUBMITTED toward
// DELIVERED and never back.
type RequestStatus string

const (
	StatusSubmitted  RequestStatus = "SUBMITTED"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusDelivered  RequestStatus = "DELIVERED"
)

// statusOrder maps each status to its position in the lifecycle.
var statusOrder = map[RequestStatus]int{
	StatusSubmitted:  0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusDelivered:  3,
}

// ValidStatus reports whether s names a known lifecycle stage.
func ValidStatus(s RequestStatus) bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransition reports whether moving from one status to the next is a
// legal forward step.  Skipping stages is allowed (an admin may mark a
// request DELIVERED straight from IN_PROGRESS); moving backwards or
// standing still is not.
func CanTransition(from, to RequestStatus) bool {
	a, ok1 := statusOrder[from]
	b, ok2 := statusOrder[to]
	return ok1 && ok2 && b > a
}

// Terminal reports whether a request in this status occupies the user's
// single active-request slot.  Only DELIVERED requests free the slot.
func (s RequestStatus) Terminal() bool {
	return s == StatusDelivered
}

// Request records a user-submitted design brief as stored in the
// `requests` table.
//
// Fields:
//  ID        – generated UUID primary key.
//  UserID    – owner of the request.
//  Type      – request category (brand, website, product).
//  Title     – short human-readable summary.
//  Brief     – category-specific payload, stored as JSON.
//  Status    – lifecycle stage (see RequestStatus).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Request struct {
	ID        string        // requests.id (UUID)
	UserID    uint64        // requests.user_id
	Type      RequestType   // requests.type
	Title     string        // requests.title
	Brief     Brief         // requests.payload (JSON column)
	Status    RequestStatus // requests.status
	CreatedAt time.Time     // requests.created_at
	UpdatedAt time.Time     // requests.updated_at
}
