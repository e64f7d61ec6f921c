package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	reviewDomain "github.com/doglife-marketplace/service-booking/internal/domain/review"
	"github.com/doglife-marketplace/service-booking/internal/events"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
	"github.com/doglife-marketplace/service-booking/pkg/kafka"
)

// SubmitReviewRequest holds a participant's rating of the other party.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Role       string    `json:"role"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewService orchestrates review eligibility checks and submissions over
// the eligibility gate.
type ReviewService struct {
	bookings bookingDomain.BookingRepository
	reviews  reviewDomain.ReviewRepository
	producer EventPublisher
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	bookings bookingDomain.BookingRepository,
	reviews reviewDomain.ReviewRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		bookings: bookings,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// CanReview answers whether the actor may review the booking, and about
// whom. Read-only; it never mutates anything.
func (s *ReviewService) CanReview(ctx context.Context, bookingID, actorID uuid.UUID) (*reviewDomain.Eligibility, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reviews.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	elig := reviewDomain.CheckEligibility(bk, existing, actorID)
	return &elig, nil
}

// SubmitReview creates a review after the eligibility gate passes. The
// unique index on (booking_id, reviewer_id) backs the gate against a
// concurrent duplicate submission.
func (s *ReviewService) SubmitReview(ctx context.Context, bookingID, actorID uuid.UUID, req SubmitReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reviews.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	elig, err := reviewDomain.Authorize(bk, existing, actorID)
	if err != nil {
		return nil, err
	}

	rev, err := reviewDomain.NewReview(bookingID, actorID, elig.RevieweeID, elig.Role, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Save(ctx, rev); err != nil {
		return nil, err
	}

	evt := events.ReviewSubmittedEvent{
		ReviewID:   rev.ID(),
		BookingID:  rev.BookingID(),
		ReviewerID: rev.ReviewerID(),
		RevieweeID: rev.RevieweeID(),
		Rating:     rev.Rating(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.ReviewSubmitted, rev.BookingID().String(), evt)

	result := toReviewDTO(rev)
	return &result, nil
}

// GetReceivedReviews returns reviews received by a user with pagination.
func (s *ReviewService) GetReceivedReviews(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.reviews.FindByRevieweeID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, rev := range reviews {
		dtos[i] = toReviewDTO(rev)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toReviewDTO(rev *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
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

func (s *ReviewService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
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
