package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	"github.com/doglife-marketplace/service-booking/internal/events"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
	"github.com/doglife-marketplace/service-booking/pkg/kafka"
)

// Decision is the provider's answer to a pending booking request.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ProviderID         uuid.UUID                 `json:"provider_id" binding:"required"`
	DogIDs             []uuid.UUID               `json:"dog_ids" binding:"required"`
	ServiceID          uuid.UUID                 `json:"service_id" binding:"required"`
	ServiceOptionLabel string                    `json:"service_option_label"`
	ServiceType        string                    `json:"service_type" binding:"required"`
	ScheduledAt        time.Time                 `json:"scheduled_at" binding:"required"`
	Stay               *bookingDomain.StayPeriod `json:"stay,omitempty"`
	TotalAmountCents   int64                     `json:"total_amount_cents"`
}

// RespondRequest holds the provider's response to a pending booking.
type RespondRequest struct {
	Decision Decision `json:"decision" binding:"required"`
	Reason   string   `json:"reason"`
	Message  string   `json:"message"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                   uuid.UUID                 `json:"id"`
	BookingNumber        string                    `json:"booking_number"`
	OwnerID              uuid.UUID                 `json:"owner_id"`
	ProviderID           uuid.UUID                 `json:"provider_id"`
	DogIDs               []uuid.UUID               `json:"dog_ids"`
	ServiceID            uuid.UUID                 `json:"service_id"`
	ServiceOptionLabel   string                    `json:"service_option_label,omitempty"`
	ServiceType          string                    `json:"service_type"`
	Status               string                    `json:"status"`
	ScheduledAt          time.Time                 `json:"scheduled_at"`
	Stay                 *bookingDomain.StayPeriod `json:"stay,omitempty"`
	TotalAmountCents     int64                     `json:"total_amount_cents"`
	CancellationFeeCents *int64                    `json:"cancellation_fee_cents,omitempty"`
	ProviderResponse     string                    `json:"provider_response,omitempty"`
	DeclineReason        string                    `json:"decline_reason,omitempty"`
	CancellationReason   string                    `json:"cancellation_reason,omitempty"`
	CancelledBy          *bookingDomain.ActorRole  `json:"cancelled_by,omitempty"`
	RespondedAt          *time.Time                `json:"responded_at,omitempty"`
	CancelledAt          *time.Time                `json:"cancelled_at,omitempty"`
	CompletedAt          *time.Time                `json:"completed_at,omitempty"`
	Version              int64                     `json:"version"`
	CreatedAt            time.Time                 `json:"created_at"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// EventPublisher is the outbound edge for lifecycle events. Satisfied by
// kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// BookingService is the application service orchestrating booking use cases.
// Every transition is a read-modify-write guarded by the aggregate's state
// machine and committed with a compare-and-set update; a losing concurrent
// writer is retried once against freshly-read state.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	feePolicy bookingDomain.FeePolicy
	producer  EventPublisher
	logger    *zap.Logger
	clock     func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	feePolicy bookingDomain.FeePolicy,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		feePolicy: feePolicy,
		producer:  producer,
		logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *BookingService) WithClock(clock func() time.Time) *BookingService {
	s.clock = clock
	return s
}

// CreateBooking creates a new pending booking for the given owner. This is
// the inbound edge of the booking-request flow; everything after creation
// goes through the lifecycle transitions.
func (s *BookingService) CreateBooking(ctx context.Context, ownerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	bk, err := bookingDomain.NewBooking(
		ownerID,
		req.ProviderID,
		req.DogIDs,
		req.ServiceID,
		req.ServiceOptionLabel,
		bookingDomain.ServiceType(req.ServiceType),
		req.ScheduledAt,
		req.Stay,
		req.TotalAmountCents,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	evt := events.BookingRequestedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		OwnerID:       bk.OwnerID(),
		ProviderID:    bk.ProviderID(),
		ServiceType:   string(bk.ServiceType()),
		ScheduledAt:   bk.ScheduledAt(),
		TotalAmount:   bk.TotalAmountCents(),
		OccurredAt:    s.clock(),
	}
	s.publishEvent(ctx, events.BookingRequested, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// Respond records the provider's accept or decline of a pending booking.
// A retried accept against an already-accepted booking returns the stored
// record unchanged.
func (s *BookingService) Respond(ctx context.Context, bookingID, actorID uuid.UUID, req RespondRequest) (*BookingDTO, error) {
	switch req.Decision {
	case DecisionAccept:
		return s.accept(ctx, bookingID, actorID, req.Message)
	case DecisionDecline:
		return s.decline(ctx, bookingID, actorID, req.Reason)
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("invalid decision: %q", req.Decision))
	}
}

func (s *BookingService) accept(ctx context.Context, bookingID, actorID uuid.UUID, message string) (*BookingDTO, error) {
	var accepted bool
	bk, err := s.transition(ctx, bookingID, func(bk *bookingDomain.Booking) (bool, error) {
		changed, err := bk.Accept(actorID, message, s.clock())
		accepted = changed
		return changed, err
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		evt := events.BookingAcceptedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			OwnerID:       bk.OwnerID(),
			ProviderID:    bk.ProviderID(),
			Message:       message,
			RespondedAt:   *bk.RespondedAt(),
			OccurredAt:    s.clock(),
		}
		s.publishEvent(ctx, events.BookingAccepted, bk.ID().String(), evt)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) decline(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.transition(ctx, bookingID, func(bk *bookingDomain.Booking) (bool, error) {
		if err := bk.Decline(actorID, reason, s.clock()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	evt := events.BookingDeclinedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		OwnerID:       bk.OwnerID(),
		ProviderID:    bk.ProviderID(),
		Reason:        reason,
		RespondedAt:   *bk.RespondedAt(),
		OccurredAt:    s.clock(),
	}
	s.publishEvent(ctx, events.BookingDeclined, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a pending or accepted booking on behalf of either
// participant. Owner cancellations are charged through the fee policy and
// the fee is stored on the record, zero included.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.transition(ctx, bookingID, func(bk *bookingDomain.Booking) (bool, error) {
		if err := bk.Cancel(actorID, reason, s.feePolicy, s.clock()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		OwnerID:       bk.OwnerID(),
		ProviderID:    bk.ProviderID(),
		CancelledBy:   bk.CancelledBy().String(),
		Reason:        reason,
		FeeCents:      *bk.CancellationFeeCents(),
		CancelledAt:   *bk.CancelledAt(),
		OccurredAt:    s.clock(),
	}
	s.publishEvent(ctx, events.BookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking marks an accepted booking as completed.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.transition(ctx, bookingID, func(bk *bookingDomain.Booking) (bool, error) {
		if err := bk.Complete(s.clock()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	evt := events.BookingCompletedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		OwnerID:       bk.OwnerID(),
		ProviderID:    bk.ProviderID(),
		TotalAmount:   bk.TotalAmountCents(),
		CompletedAt:   *bk.CompletedAt(),
		OccurredAt:    s.clock(),
	}
	s.publishEvent(ctx, events.BookingCompleted, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBookingByID is the event-consumer entry point for completion; it
// discards the DTO.
func (s *BookingService) CompleteBookingByID(ctx context.Context, bookingID uuid.UUID) error {
	_, err := s.CompleteBooking(ctx, bookingID)
	return err
}

// transition runs a read-modify-write cycle against the booking. apply
// reports whether it changed state; an unchanged aggregate (an idempotent
// retry) is returned as-is without a write. A version conflict on commit
// means another writer won the race; the transition is re-run once against
// the freshly-read state so a real state conflict surfaces as
// InvalidTransition rather than a bare storage error.
func (s *BookingService) transition(
	ctx context.Context,
	bookingID uuid.UUID,
	apply func(*bookingDomain.Booking) (bool, error),
) (*bookingDomain.Booking, error) {
	const attempts = 2

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		bk, err := s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		changed, err := apply(bk)
		if err != nil {
			return nil, err
		}
		if !changed {
			return bk, nil
		}

		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			if domain.IsCode(err, domain.CodeConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return bk, nil
	}
	return nil, lastErr
}

// SweepOverdueCompletions completes accepted bookings whose scheduled time
// passed more than graceWindow ago. It backstops the service.finished
// consumer: a missed or unpublished event must not strand a booking in
// accepted forever. Errors on individual bookings are logged and skipped so
// one bad row cannot stall the sweep.
func (s *BookingService) SweepOverdueCompletions(ctx context.Context, graceWindow time.Duration, batchSize int) (int, error) {
	cutoff := s.clock().Add(-graceWindow)
	due, err := s.repo.FindAcceptedDueBefore(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue bookings: %w", err)
	}

	completed := 0
	for _, bk := range due {
		if _, err := s.CompleteBooking(ctx, bk.ID()); err != nil {
			s.logger.Warn("sweep failed to complete booking",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		completed++
	}

	if completed > 0 {
		s.logger.Info("completed overdue bookings",
			zap.Int("count", completed),
			zap.Time("cutoff", cutoff),
		)
	}
	return completed, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a single booking by its booking number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetOwnerBookings retrieves paginated bookings requested by an owner.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByOwnerID(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings addressed to a provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                   bk.ID(),
		BookingNumber:        bk.BookingNumber(),
		OwnerID:              bk.OwnerID(),
		ProviderID:           bk.ProviderID(),
		DogIDs:               bk.DogIDs(),
		ServiceID:            bk.ServiceID(),
		ServiceOptionLabel:   bk.ServiceOptionLabel(),
		ServiceType:          string(bk.ServiceType()),
		Status:               string(bk.Status()),
		ScheduledAt:          bk.ScheduledAt(),
		Stay:                 bk.Stay(),
		TotalAmountCents:     bk.TotalAmountCents(),
		CancellationFeeCents: bk.CancellationFeeCents(),
		ProviderResponse:     bk.ProviderResponse(),
		DeclineReason:        bk.DeclineReason(),
		CancellationReason:   bk.CancellationReason(),
		CancelledBy:          bk.CancelledBy(),
		RespondedAt:          bk.RespondedAt(),
		CancelledAt:          bk.CancelledAt(),
		CompletedAt:          bk.CompletedAt(),
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.Publish(ctx, events.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
