package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	reviewDomain "github.com/doglife-marketplace/service-booking/internal/domain/review"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

// fakeBookingRepo is an in-memory BookingRepository. conflictsLeft makes the
// next N Update calls lose the optimistic-locking race.
type fakeBookingRepo struct {
	mu            sync.Mutex
	bookings      map[uuid.UUID]*bookingDomain.Booking
	conflictsLeft int
	updateCalls   int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			return cloneBooking(bk), nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

func (r *fakeBookingRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() == ownerID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByProviderID(_ context.Context, providerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.ProviderID() == providerID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByParticipantBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() != userID && bk.ProviderID() != userID {
			continue
		}
		at := bk.ScheduledAt()
		if at.Before(from) || !at.Before(to) {
			continue
		}
		out = append(out, cloneBooking(bk))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt().Before(out[j].ScheduledAt()) })
	return out, nil
}

func (r *fakeBookingRepo) FindAcceptedDueBefore(_ context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusAccepted && bk.ScheduledAt().Before(cutoff) {
			out = append(out, cloneBooking(bk))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, cloneBooking(bk))
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return domain.NewConflictError("booking was modified concurrently")
	}
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

// cloneBooking round-trips through the reconstruction path so callers cannot
// mutate stored state in place, matching a real repository's behavior.
func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(),
		bk.BookingNumber(),
		bk.OwnerID(),
		bk.ProviderID(),
		bk.DogIDs(),
		bk.ServiceID(),
		bk.ServiceOptionLabel(),
		bk.ServiceType(),
		bk.Status(),
		bk.ScheduledAt(),
		bk.Stay(),
		bk.TotalAmountCents(),
		bk.CancellationFeeCents(),
		bk.ProviderResponse(),
		bk.DeclineReason(),
		bk.CancellationReason(),
		bk.CancelledBy(),
		bk.RespondedAt(),
		bk.CancelledAt(),
		bk.CompletedAt(),
		bk.Version(),
		bk.CreatedAt(),
		bk.UpdatedAt(),
	)
}

// fakeReviewRepo is an in-memory ReviewRepository enforcing the
// (booking_id, reviewer_id) uniqueness the real schema guarantees.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []*reviewDomain.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{}
}

func (r *fakeReviewRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rev := range r.reviews {
		if rev.BookingID() == bookingID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) FindByRevieweeID(_ context.Context, revieweeID uuid.UUID, _, _ int) ([]*reviewDomain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rev := range r.reviews {
		if rev.RevieweeID() == revieweeID {
			out = append(out, rev)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) Save(_ context.Context, rev *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BookingID() == rev.BookingID() && existing.ReviewerID() == rev.ReviewerID() {
			return domain.NewReviewNotPermittedError(reviewDomain.ReasonAlreadyReviewed)
		}
	}
	r.reviews = append(r.reviews, rev)
	return nil
}

// capturedEvent is one Publish call observed by fakePublisher.
type capturedEvent struct {
	topic   string
	key     string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{topic: topic, key: key, payload: payload})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *fakePublisher) last() capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}
