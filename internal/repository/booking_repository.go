package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber        string          `gorm:"uniqueIndex;not null;size:20"`
	OwnerID              uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProviderID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	DogIDs               json.RawMessage `gorm:"type:jsonb;not null"`
	ServiceID            uuid.UUID       `gorm:"type:uuid;not null"`
	ServiceOptionLabel   string          `gorm:"size:200"`
	ServiceType          string          `gorm:"not null;size:30"`
	Status               string          `gorm:"not null;size:30;index"`
	ScheduledAt          time.Time       `gorm:"not null;index"`
	Stay                 json.RawMessage `gorm:"type:jsonb"`
	TotalAmountCents     int64           `gorm:"not null"`
	CancellationFeeCents *int64          `gorm:""`
	ProviderResponse     string          `gorm:"size:1000"`
	DeclineReason        string          `gorm:"size:500"`
	CancellationReason   string          `gorm:"size:500"`
	CancelledBy          *string         `gorm:"size:10"`
	RespondedAt          *time.Time      `gorm:""`
	CancelledAt          *time.Time      `gorm:""`
	CompletedAt          *time.Time      `gorm:""`
	Version              int64           `gorm:"not null;default:1"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByOwnerID retrieves bookings for a specific owner with pagination.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "owner_id = ?", ownerID, page, limit)
}

// FindByProviderID retrieves bookings for a specific provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "provider_id = ?", providerID, page, limit)
}

func (r *GormBookingRepository) findPaged(ctx context.Context, cond string, arg interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("scheduled_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// FindByParticipantBetween retrieves bookings where the user is owner or
// provider, scheduled within [from, to), ordered by scheduled time.
func (r *GormBookingRepository) FindByParticipantBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("(owner_id = ? OR provider_id = ?)", userID, userID).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Order("scheduled_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find participant bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// FindAcceptedDueBefore retrieves accepted bookings scheduled before the cutoff.
func (r *GormBookingRepository) FindAcceptedDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at < ?", string(bookingDomain.StatusAccepted), cutoff).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find due bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// The guard check and the write are indivisible: the UPDATE is conditional
// on the version the transition was decided against, so a losing concurrent
// writer affects zero rows and gets a conflict instead of overwriting.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion was called after the transition, so the stored row
	// must still be at version - 1.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                 model.Status,
			"cancellation_fee_cents": model.CancellationFeeCents,
			"provider_response":      model.ProviderResponse,
			"decline_reason":         model.DeclineReason,
			"cancellation_reason":    model.CancellationReason,
			"cancelled_by":           model.CancelledBy,
			"responded_at":           model.RespondedAt,
			"cancelled_at":           model.CancelledAt,
			"completed_at":           model.CompletedAt,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	dogIDsJSON, err := json.Marshal(bk.DogIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dog IDs: %w", err)
	}

	var stayJSON json.RawMessage
	if bk.Stay() != nil {
		data, err := json.Marshal(bk.Stay())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stay period: %w", err)
		}
		stayJSON = data
	}

	var cancelledBy *string
	if bk.CancelledBy() != nil {
		s := string(*bk.CancelledBy())
		cancelledBy = &s
	}

	return &BookingModel{
		ID:                   bk.ID(),
		BookingNumber:        bk.BookingNumber(),
		OwnerID:              bk.OwnerID(),
		ProviderID:           bk.ProviderID(),
		DogIDs:               dogIDsJSON,
		ServiceID:            bk.ServiceID(),
		ServiceOptionLabel:   bk.ServiceOptionLabel(),
		ServiceType:          string(bk.ServiceType()),
		Status:               string(bk.Status()),
		ScheduledAt:          bk.ScheduledAt(),
		Stay:                 stayJSON,
		TotalAmountCents:     bk.TotalAmountCents(),
		CancellationFeeCents: bk.CancellationFeeCents(),
		ProviderResponse:     bk.ProviderResponse(),
		DeclineReason:        bk.DeclineReason(),
		CancellationReason:   bk.CancellationReason(),
		CancelledBy:          cancelledBy,
		RespondedAt:          bk.RespondedAt(),
		CancelledAt:          bk.CancelledAt(),
		CompletedAt:          bk.CompletedAt(),
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var dogIDs []uuid.UUID
	if err := json.Unmarshal(m.DogIDs, &dogIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dog IDs: %w", err)
	}

	var stay *bookingDomain.StayPeriod
	if len(m.Stay) > 0 {
		var s bookingDomain.StayPeriod
		if err := json.Unmarshal(m.Stay, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stay period: %w", err)
		}
		stay = &s
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	var cancelledBy *bookingDomain.ActorRole
	if m.CancelledBy != nil {
		role, err := bookingDomain.ParseActorRole(*m.CancelledBy)
		if err != nil {
			return nil, err
		}
		cancelledBy = &role
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.OwnerID,
		m.ProviderID,
		dogIDs,
		m.ServiceID,
		m.ServiceOptionLabel,
		bookingDomain.ServiceType(m.ServiceType),
		status,
		m.ScheduledAt,
		stay,
		m.TotalAmountCents,
		m.CancellationFeeCents,
		m.ProviderResponse,
		m.DeclineReason,
		m.CancellationReason,
		cancelledBy,
		m.RespondedAt,
		m.CancelledAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
