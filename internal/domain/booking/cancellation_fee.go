package booking

import "time"

// Cancellation fee brackets, as a percentage of the booking total.
// Boundaries are strict on the upper bound: cancelling at exactly 24 hours
// out lands in the cheaper 25% bracket, at exactly 48 hours out it is free.
const (
	lateCancelWindow  = 24 * time.Hour
	earlyCancelWindow = 48 * time.Hour

	lateCancelPercent  = 50
	earlyCancelPercent = 25
)

// FeePolicy computes the cancellation fee owed for cancelling a booking at a
// given moment. Implementations must be pure: no clock reads beyond the
// supplied now, no state.
type FeePolicy interface {
	// Fee returns the fee in cents for cancelling a booking scheduled at
	// scheduledAt, as of now, by an actor with the given role.
	Fee(scheduledAt, now time.Time, totalAmountCents int64, role ActorRole) int64
}

// StandardFeePolicy implements the marketplace's cancellation fee schedule:
// owners pay 50% of the total inside 24 hours of the scheduled time, 25%
// inside 48 hours, and nothing beyond that. Provider cancellations are
// always free.
type StandardFeePolicy struct{}

// NewStandardFeePolicy creates a new StandardFeePolicy.
func NewStandardFeePolicy() *StandardFeePolicy {
	return &StandardFeePolicy{}
}

// Fee computes the cancellation fee in cents.
//
// A negative time-until-service (cancelling after the scheduled time has
// already passed) is not special-cased: it falls in the <24h bracket and
// incurs the maximum fee.
func (p *StandardFeePolicy) Fee(scheduledAt, now time.Time, totalAmountCents int64, role ActorRole) int64 {
	if role == RoleProvider {
		return 0
	}

	untilService := scheduledAt.Sub(now)
	switch {
	case untilService < lateCancelWindow:
		return totalAmountCents * lateCancelPercent / 100
	case untilService < earlyCancelWindow:
		return totalAmountCents * earlyCancelPercent / 100
	default:
		return 0
	}
}
