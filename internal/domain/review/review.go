package review

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

const (
	// MinRating and MaxRating bound the allowed star rating.
	MinRating = 1
	MaxRating = 5
)

// Review is one participant's rating of the other for a completed booking.
// At most two exist per booking (one per direction) and each is immutable
// once created.
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	reviewerID uuid.UUID
	revieweeID uuid.UUID
	role       bookingDomain.ActorRole
	rating     int
	comment    string
	createdAt  time.Time
}

// NewReview creates a Review after the eligibility gate has been passed.
func NewReview(
	bookingID uuid.UUID,
	reviewerID uuid.UUID,
	revieweeID uuid.UUID,
	role bookingDomain.ActorRole,
	rating int,
	comment string,
) (*Review, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if reviewerID == uuid.Nil {
		return nil, domain.NewValidationError("reviewer ID is required")
	}
	if revieweeID == uuid.Nil {
		return nil, domain.NewValidationError("reviewee ID is required")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("reviewer role must be owner or provider")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewInvalidRatingError(rating)
	}

	return &Review{
		id:         uuid.New(),
		bookingID:  bookingID,
		reviewerID: reviewerID,
		revieweeID: revieweeID,
		role:       role,
		rating:     rating,
		comment:    comment,
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructReview rebuilds a Review from persistence data (no validation).
func ReconstructReview(
	id uuid.UUID,
	bookingID uuid.UUID,
	reviewerID uuid.UUID,
	revieweeID uuid.UUID,
	role bookingDomain.ActorRole,
	rating int,
	comment string,
	createdAt time.Time,
) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		reviewerID: reviewerID,
		revieweeID: revieweeID,
		role:       role,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
	}
}

// ID returns the review's unique identifier.
func (r *Review) ID() uuid.UUID { return r.id }

// BookingID returns the booking this review is about.
func (r *Review) BookingID() uuid.UUID { return r.bookingID }

// ReviewerID returns the author's user ID.
func (r *Review) ReviewerID() uuid.UUID { return r.reviewerID }

// RevieweeID returns the reviewed party's user ID.
func (r *Review) RevieweeID() uuid.UUID { return r.revieweeID }

// Role returns the author's side of the booking.
func (r *Review) Role() bookingDomain.ActorRole { return r.role }

// Rating returns the star rating (1-5).
func (r *Review) Rating() int { return r.rating }

// Comment returns the optional free-text comment.
func (r *Review) Comment() string { return r.comment }

// CreatedAt returns the creation timestamp.
func (r *Review) CreatedAt() time.Time { return r.createdAt }
