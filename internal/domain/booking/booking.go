package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain. All lifecycle
// transitions go through its behavior methods; a failed transition leaves
// the aggregate untouched.
type Booking struct {
	id                 uuid.UUID
	bookingNumber      string
	ownerID            uuid.UUID
	providerID         uuid.UUID
	dogIDs             []uuid.UUID
	serviceID          uuid.UUID
	serviceOptionLabel string
	serviceType        ServiceType
	status             BookingStatus

	scheduledAt time.Time
	stay        *StayPeriod

	totalAmountCents     int64
	cancellationFeeCents *int64

	providerResponse   string
	declineReason      string
	cancellationReason string
	cancelledBy        *ActorRole

	respondedAt *time.Time
	cancelledAt *time.Time
	completedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	ownerID uuid.UUID,
	providerID uuid.UUID,
	dogIDs []uuid.UUID,
	serviceID uuid.UUID,
	serviceOptionLabel string,
	serviceType ServiceType,
	scheduledAt time.Time,
	stay *StayPeriod,
	totalAmountCents int64,
) (*Booking, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if ownerID == providerID {
		return nil, domain.NewValidationError("owner and provider must be different users")
	}
	if len(dogIDs) == 0 {
		return nil, domain.NewValidationError("at least one dog is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(dogIDs))
	for _, dogID := range dogIDs {
		if dogID == uuid.Nil {
			return nil, domain.NewValidationError("dog ID is required")
		}
		if _, dup := seen[dogID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("duplicate dog ID: %s", dogID))
		}
		seen[dogID] = struct{}{}
	}
	if serviceID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if !serviceType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid service type: %s", serviceType))
	}
	if scheduledAt.IsZero() {
		return nil, domain.NewValidationError("scheduled time is required")
	}
	if serviceType.IsStayBased() {
		if stay == nil {
			return nil, domain.NewValidationError(fmt.Sprintf("%s bookings require arrival and departure dates", serviceType))
		}
		if !stay.IsValid() {
			return nil, domain.NewValidationError("departure must be after arrival")
		}
	}
	if totalAmountCents < 0 {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:                 uuid.New(),
		bookingNumber:      bookingNumber,
		ownerID:            ownerID,
		providerID:         providerID,
		dogIDs:             dogIDs,
		serviceID:          serviceID,
		serviceOptionLabel: serviceOptionLabel,
		serviceType:        serviceType,
		status:             StatusPending,
		scheduledAt:        scheduledAt,
		stay:               stay,
		totalAmountCents:   totalAmountCents,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	ownerID uuid.UUID,
	providerID uuid.UUID,
	dogIDs []uuid.UUID,
	serviceID uuid.UUID,
	serviceOptionLabel string,
	serviceType ServiceType,
	status BookingStatus,
	scheduledAt time.Time,
	stay *StayPeriod,
	totalAmountCents int64,
	cancellationFeeCents *int64,
	providerResponse string,
	declineReason string,
	cancellationReason string,
	cancelledBy *ActorRole,
	respondedAt *time.Time,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                   id,
		bookingNumber:        bookingNumber,
		ownerID:              ownerID,
		providerID:           providerID,
		dogIDs:               dogIDs,
		serviceID:            serviceID,
		serviceOptionLabel:   serviceOptionLabel,
		serviceType:          serviceType,
		status:               status,
		scheduledAt:          scheduledAt,
		stay:                 stay,
		totalAmountCents:     totalAmountCents,
		cancellationFeeCents: cancellationFeeCents,
		providerResponse:     providerResponse,
		declineReason:        declineReason,
		cancellationReason:   cancellationReason,
		cancelledBy:          cancelledBy,
		respondedAt:          respondedAt,
		cancelledAt:          cancelledAt,
		completedAt:          completedAt,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// OwnerID returns the dog owner's user ID.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// ProviderID returns the service provider's user ID.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// DogIDs returns the IDs of the dogs covered by this booking.
func (b *Booking) DogIDs() []uuid.UUID { return b.dogIDs }

// ServiceID returns the ID of the service being performed.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// ServiceOptionLabel returns the display label of the chosen service option.
func (b *Booking) ServiceOptionLabel() string { return b.serviceOptionLabel }

// ServiceType returns the kind of service being booked.
func (b *Booking) ServiceType() ServiceType { return b.serviceType }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// ScheduledAt returns the authoritative start time of the service.
func (b *Booking) ScheduledAt() time.Time { return b.scheduledAt }

// Stay returns the arrival/departure bounds for stay-based services, or nil.
func (b *Booking) Stay() *StayPeriod { return b.stay }

// TotalAmountCents returns the booking total in cents, fixed at creation.
func (b *Booking) TotalAmountCents() int64 { return b.totalAmountCents }

// CancellationFeeCents returns the fee charged on cancellation, or nil if
// the booking was never cancelled. A zero fee is stored, not elided, so the
// charge is auditable.
func (b *Booking) CancellationFeeCents() *int64 { return b.cancellationFeeCents }

// ProviderResponse returns the provider's message attached when accepting.
func (b *Booking) ProviderResponse() string { return b.providerResponse }

// DeclineReason returns the reason given when declining.
func (b *Booking) DeclineReason() string { return b.declineReason }

// CancellationReason returns the reason given when cancelling.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// CancelledBy returns which party cancelled, or nil.
func (b *Booking) CancelledBy() *ActorRole { return b.cancelledBy }

// RespondedAt returns when the provider responded, or nil.
func (b *Booking) RespondedAt() *time.Time { return b.respondedAt }

// CancelledAt returns when the booking was cancelled, or nil.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns when the booking was completed, or nil.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// RoleOf returns the side of the booking actorID is on, or an error if the
// actor is not a participant.
func (b *Booking) RoleOf(actorID uuid.UUID) (ActorRole, error) {
	switch actorID {
	case b.ownerID:
		return RoleOwner, nil
	case b.providerID:
		return RoleProvider, nil
	default:
		return "", domain.NewUnauthorizedError("actor is not a participant in this booking")
	}
}

// --- Behavior ---

// Accept transitions the booking from pending to accepted. Only the provider
// may accept. Accepting an already-accepted booking is a no-op so a retried
// request returns the existing record; the returned bool reports whether
// state actually changed.
func (b *Booking) Accept(actorID uuid.UUID, message string, now time.Time) (bool, error) {
	if actorID != b.providerID {
		return false, domain.NewUnauthorizedError("only the provider can respond to a booking request")
	}
	if b.status == StatusAccepted {
		return false, nil
	}
	if !b.status.CanTransitionTo(StatusAccepted) {
		return false, domain.NewInvalidTransitionError(string(b.status), "accept")
	}
	respondedAt := now.UTC()
	b.status = StatusAccepted
	b.providerResponse = message
	b.respondedAt = &respondedAt
	b.updatedAt = respondedAt
	return true, nil
}

// Decline transitions the booking from pending to declined. Only the
// provider may decline, and a reason is required.
func (b *Booking) Decline(actorID uuid.UUID, reason string, now time.Time) error {
	if actorID != b.providerID {
		return domain.NewUnauthorizedError("only the provider can respond to a booking request")
	}
	if !b.status.CanTransitionTo(StatusDeclined) {
		return domain.NewInvalidTransitionError(string(b.status), "decline")
	}
	if reason == "" {
		return domain.NewMissingReasonError("decline")
	}
	respondedAt := now.UTC()
	b.status = StatusDeclined
	b.declineReason = reason
	b.respondedAt = &respondedAt
	b.updatedAt = respondedAt
	return nil
}

// Cancel transitions a pending or accepted booking to cancelled. Either
// participant may cancel with a reason; an owner-initiated cancellation is
// charged through the fee policy, and the resulting fee is stored even when
// zero. Provider cancellations never carry a fee.
func (b *Booking) Cancel(actorID uuid.UUID, reason string, policy FeePolicy, now time.Time) error {
	role, err := b.RoleOf(actorID)
	if err != nil {
		return err
	}
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidTransitionError(string(b.status), "cancel")
	}
	if reason == "" {
		return domain.NewMissingReasonError("cancel")
	}

	fee := policy.Fee(b.scheduledAt, now, b.totalAmountCents, role)

	cancelledAt := now.UTC()
	b.status = StatusCancelled
	b.cancellationReason = reason
	b.cancelledBy = &role
	b.cancellationFeeCents = &fee
	b.cancelledAt = &cancelledAt
	b.updatedAt = cancelledAt
	return nil
}

// Complete transitions the booking from accepted to completed.
func (b *Booking) Complete(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidTransitionError(string(b.status), "complete")
	}
	completedAt := now.UTC()
	b.status = StatusCompleted
	b.completedAt = &completedAt
	b.updatedAt = completedAt
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
