package review

import (
	"github.com/google/uuid"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

// Ineligibility reasons surfaced to callers so they can show an accurate
// message instead of a generic failure.
const (
	ReasonNotCompleted    = "booking is not completed"
	ReasonNotParticipant  = "actor is not a participant in this booking"
	ReasonAlreadyReviewed = "actor has already reviewed this booking"
)

// Eligibility is the answer to "may this actor review this booking, and
// about whom". Role describes the actor and drives which review-prompt copy
// the caller shows.
type Eligibility struct {
	Eligible   bool                    `json:"eligible"`
	RevieweeID uuid.UUID               `json:"reviewee_id,omitempty"`
	Role       bookingDomain.ActorRole `json:"role,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
}

// CheckEligibility derives review eligibility from the booking's state and
// the reviews that already exist for it. Read-only and side-effect-free.
func CheckEligibility(bk *bookingDomain.Booking, existing []*Review, actorID uuid.UUID) Eligibility {
	if bk.Status() != bookingDomain.StatusCompleted {
		return Eligibility{Reason: ReasonNotCompleted}
	}

	role, err := bk.RoleOf(actorID)
	if err != nil {
		return Eligibility{Reason: ReasonNotParticipant}
	}

	for _, r := range existing {
		if r.ReviewerID() == actorID {
			return Eligibility{Reason: ReasonAlreadyReviewed}
		}
	}

	reviewee := bk.ProviderID()
	if role == bookingDomain.RoleProvider {
		reviewee = bk.OwnerID()
	}

	return Eligibility{
		Eligible:   true,
		RevieweeID: reviewee,
		Role:       role,
	}
}

// Authorize runs the eligibility gate and converts an ineligible answer into
// a ReviewNotPermitted error carrying the specific reason.
func Authorize(bk *bookingDomain.Booking, existing []*Review, actorID uuid.UUID) (Eligibility, error) {
	elig := CheckEligibility(bk, existing, actorID)
	if !elig.Eligible {
		return elig, domain.NewReviewNotPermittedError(elig.Reason)
	}
	return elig, nil
}
