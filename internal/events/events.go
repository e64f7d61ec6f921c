package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicServiceEvents = "service.events"
)

// Event types published on booking.events. Notification delivery is an
// external collaborator; these events are the side-effect intents it
// consumes.
const (
	BookingRequested = "booking.requested"
	BookingAccepted  = "booking.accepted"
	BookingDeclined  = "booking.declined"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	ReviewSubmitted  = "review.submitted"
)

// Event types consumed from service.events.
const (
	ServiceFinished = "service.finished"
)

// BookingRequestedEvent is published when an owner's booking request lands.
type BookingRequestedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	ServiceType   string    `json:"service_type"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	TotalAmount   int64     `json:"total_amount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingAcceptedEvent is published when the provider accepts.
type BookingAcceptedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	Message       string    `json:"message,omitempty"`
	RespondedAt   time.Time `json:"responded_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingDeclinedEvent is published when the provider declines.
type BookingDeclinedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	Reason        string    `json:"reason"`
	RespondedAt   time.Time `json:"responded_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when either participant cancels. The
// fee is carried even when zero so downstream billing has an audit trail.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CancelledBy   string    `json:"cancelled_by"`
	Reason        string    `json:"reason"`
	FeeCents      int64     `json:"cancellation_fee_cents"`
	CancelledAt   time.Time `json:"cancelled_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when a booking reaches completed.
type BookingCompletedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	TotalAmount   int64     `json:"total_amount_cents"`
	CompletedAt   time.Time `json:"completed_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReviewSubmittedEvent is published when a participant leaves a review.
type ReviewSubmittedEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ServiceFinishedEvent is consumed from the external scheduler when a
// service engagement has run to its end; it triggers booking completion.
type ServiceFinishedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	FinishedAt time.Time `json:"finished_at"`
	OccurredAt time.Time `json:"occurred_at"`
}
