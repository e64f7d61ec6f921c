package review

import (
	"context"

	"github.com/google/uuid"
)

// ReviewRepository defines the persistence contract for reviews.
type ReviewRepository interface {
	// FindByBookingID retrieves all reviews for a booking (at most two).
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Review, error)

	// FindByRevieweeID retrieves reviews received by a user with pagination.
	FindByRevieweeID(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*Review, int64, error)

	// Save persists a new review. Implementations must enforce uniqueness on
	// (booking_id, reviewer_id).
	Save(ctx context.Context, review *Review) error
}
