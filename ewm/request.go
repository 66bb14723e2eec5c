package ewm

import (
	"time"
)

// RequestStatus is the status of a ParticipationRequest.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// ParticipationRequest is one user's registration against one event.
// Confirmed requests count against the event's participant limit; the
// confirmation workflow itself is handled outside this module.
type ParticipationRequest struct {
	ID          int64
	EventID     int64
	RequesterID int64
	Status      RequestStatus
	Created     time.Time
}
