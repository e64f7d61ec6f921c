package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusDeclined  BookingStatus = "declined"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
// It is the single point of truth for legality; handlers and callers never
// re-implement these checks.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusDeclined, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
	StatusDeclined:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s BookingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// ActorRole identifies which side of a booking an actor is on.
type ActorRole string

const (
	RoleOwner    ActorRole = "owner"
	RoleProvider ActorRole = "provider"
)

// IsValid returns true if the role is recognized.
func (r ActorRole) IsValid() bool {
	return r == RoleOwner || r == RoleProvider
}

// Other returns the opposite side of the booking.
func (r ActorRole) Other() ActorRole {
	if r == RoleOwner {
		return RoleProvider
	}
	return RoleOwner
}

// String returns the string representation of the role.
func (r ActorRole) String() string {
	return string(r)
}

// ParseActorRole converts a string to an ActorRole, returning an error if invalid.
func ParseActorRole(s string) (ActorRole, error) {
	role := ActorRole(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid actor role: %s", s)
	}
	return role, nil
}
