package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reviewDomain "github.com/doglife-marketplace/service-booking/internal/domain/review"
	"github.com/doglife-marketplace/service-booking/pkg/domain"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
)

// ReviewModel is the GORM model for the booking_reviews table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_booking_reviewer"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_reviewer"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Role       string    `gorm:"type:varchar(10);not null"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "booking_reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review. The unique index on (booking_id, reviewer_id)
// backs up the eligibility gate against concurrent duplicate submissions.
func (r *GormReviewRepository) Save(ctx context.Context, rev *reviewDomain.Review) error {
	model := toReviewModel(rev)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return domain.NewReviewNotPermittedError(reviewDomain.ReasonAlreadyReviewed)
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// FindByBookingID returns all reviews for a booking (at most two).
func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = toReviewDomain(&m)
	}
	return reviews, nil
}

// FindByRevieweeID returns reviews received by a user with pagination.
func (r *GormReviewRepository) FindByRevieweeID(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("reviewee_id = ?", revieweeID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = toReviewDomain(&m)
	}
	return reviews, total, nil
}

func toReviewModel(rev *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:         rev.ID(),
		BookingID:  rev.BookingID(),
		ReviewerID: rev.ReviewerID(),
		RevieweeID: rev.RevieweeID(),
		Role:       string(rev.Role()),
		Rating:     rev.Rating(),
		Comment:    rev.Comment(),
		CreatedAt:  rev.CreatedAt(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.ReconstructReview(
		m.ID,
		m.BookingID,
		m.ReviewerID,
		m.RevieweeID,
		bookingDomain.ActorRole(m.Role),
		m.Rating,
		m.Comment,
		m.CreatedAt,
	)
}
