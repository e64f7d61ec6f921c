package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doglife-marketplace/service-booking/pkg/domain"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type testBookingParams struct {
	serviceType ServiceType
	scheduledAt time.Time
	stay        *StayPeriod
	totalCents  int64
}

func newTestBooking(t *testing.T, ownerID, providerID uuid.UUID, params testBookingParams) *Booking {
	t.Helper()

	if params.serviceType == "" {
		params.serviceType = ServiceWalking
	}
	if params.scheduledAt.IsZero() {
		params.scheduledAt = testNow.Add(72 * time.Hour)
	}
	if params.totalCents == 0 {
		params.totalCents = 100000
	}

	bk, err := NewBooking(
		ownerID,
		providerID,
		[]uuid.UUID{uuid.New()},
		uuid.New(),
		"60 minute walk",
		params.serviceType,
		params.scheduledAt,
		params.stay,
		params.totalCents,
	)
	require.NoError(t, err)
	return bk
}

func TestNewBooking_Validation(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	dogID := uuid.New()
	serviceID := uuid.New()
	scheduledAt := testNow.Add(48 * time.Hour)

	tests := []struct {
		name  string
		build func() (*Booking, error)
	}{
		{"missing owner", func() (*Booking, error) {
			return NewBooking(uuid.Nil, providerID, []uuid.UUID{dogID}, serviceID, "", ServiceWalking, scheduledAt, nil, 1000)
		}},
		{"missing provider", func() (*Booking, error) {
			return NewBooking(ownerID, uuid.Nil, []uuid.UUID{dogID}, serviceID, "", ServiceWalking, scheduledAt, nil, 1000)
		}},
		{"owner booking themselves", func() (*Booking, error) {
			return NewBooking(ownerID, ownerID, []uuid.UUID{dogID}, serviceID, "", ServiceWalking, scheduledAt, nil, 1000)
		}},
		{"no dogs", func() (*Booking, error) {
			return NewBooking(ownerID, providerID, nil, serviceID, "", ServiceWalking, scheduledAt, nil, 1000)
		}},
		{"duplicate dogs", func() (*Booking, error) {
			return NewBooking(ownerID, providerID, []uuid.UUID{dogID, dogID}, serviceID, "", ServiceWalking, scheduledAt, nil, 1000)
		}},
		{"unknown service type", func() (*Booking, error) {
			return NewBooking(ownerID, providerID, []uuid.UUID{dogID}, serviceID, "", ServiceType("surfing"), scheduledAt, nil, 1000)
		}},
		{"negative amount", func() (*Booking, error) {
			return NewBooking(ownerID, providerID, []uuid.UUID{dogID}, serviceID, "", ServiceWalking, scheduledAt, nil, -1)
		}},
		{"boarding without stay", func() (*Booking, error) {
			return NewBooking(ownerID, providerID, []uuid.UUID{dogID}, serviceID, "", ServiceBoarding, scheduledAt, nil, 1000)
		}},
		{"departure before arrival", func() (*Booking, error) {
			stay := &StayPeriod{ArrivalAt: scheduledAt, DepartureAt: scheduledAt.Add(-time.Hour)}
			return NewBooking(ownerID, providerID, []uuid.UUID{dogID}, serviceID, "", ServiceBoarding, scheduledAt, stay, 1000)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		})
	}
}

func TestNewBooking_StartsPending(t *testing.T) {
	bk := newTestBooking(t, uuid.New(), uuid.New(), testBookingParams{})

	assert.Equal(t, StatusPending, bk.Status())
	assert.Nil(t, bk.RespondedAt())
	assert.Nil(t, bk.CancelledAt())
	assert.Nil(t, bk.CompletedAt())
	assert.Nil(t, bk.CancellationFeeCents())
	assert.Equal(t, int64(1), bk.Version())
	assert.Contains(t, bk.BookingNumber(), "BK-")
}

func TestBooking_Accept(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	changed, err := bk.Accept(providerID, "see you then", testNow)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusAccepted, bk.Status())
	assert.Equal(t, "see you then", bk.ProviderResponse())
	require.NotNil(t, bk.RespondedAt())
	assert.Equal(t, testNow, *bk.RespondedAt())
}

func TestBooking_Accept_RetryIsIdempotent(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	changed, err := bk.Accept(providerID, "", testNow)
	require.NoError(t, err)
	require.True(t, changed)
	firstRespondedAt := *bk.RespondedAt()

	changed, err = bk.Accept(providerID, "different message", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusAccepted, bk.Status())
	assert.Equal(t, firstRespondedAt, *bk.RespondedAt(), "a retried accept must not touch the record")
	assert.Empty(t, bk.ProviderResponse())
}

func TestBooking_Accept_OnlyProvider(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	for _, actor := range []uuid.UUID{ownerID, uuid.New()} {
		changed, err := bk.Accept(actor, "", testNow)
		assert.False(t, changed)
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
		assert.Equal(t, StatusPending, bk.Status())
	}
}

func TestBooking_Decline(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	err := bk.Decline(providerID, "fully booked that week", testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, bk.Status())
	assert.Equal(t, "fully booked that week", bk.DeclineReason())
	assert.Empty(t, bk.CancellationReason())
	require.NotNil(t, bk.RespondedAt())
}

func TestBooking_Decline_RequiresReason(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	err := bk.Decline(providerID, "", testNow)
	assert.Equal(t, domain.CodeMissingReason, domain.CodeOf(err))
	assert.Equal(t, StatusPending, bk.Status(), "a rejected decline must leave the booking pending")
	assert.Nil(t, bk.RespondedAt())
}

func TestBooking_Decline_OnlyProvider(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	err := bk.Decline(ownerID, "reason", testNow)
	assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestBooking_Cancel_ByOwnerStoresFee(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	// 30 hours out: the 25% bracket.
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{
		scheduledAt: testNow.Add(30 * time.Hour),
		totalCents:  100000,
	})

	err := bk.Cancel(ownerID, "plans changed", NewStandardFeePolicy(), testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Equal(t, "plans changed", bk.CancellationReason())
	require.NotNil(t, bk.CancelledBy())
	assert.Equal(t, RoleOwner, *bk.CancelledBy())
	require.NotNil(t, bk.CancellationFeeCents())
	assert.Equal(t, int64(25000), *bk.CancellationFeeCents())
	require.NotNil(t, bk.CancelledAt())
}

func TestBooking_Cancel_LateByOwner(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{
		scheduledAt: testNow.Add(10 * time.Hour),
		totalCents:  100000,
	})

	err := bk.Cancel(ownerID, "emergency", NewStandardFeePolicy(), testNow)
	require.NoError(t, err)
	require.NotNil(t, bk.CancellationFeeCents())
	assert.Equal(t, int64(50000), *bk.CancellationFeeCents())
}

func TestBooking_Cancel_ByProviderIsFree(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{
		scheduledAt: testNow.Add(2 * time.Hour), // inside the 50% window
	})

	err := bk.Cancel(providerID, "dog sitter unavailable", NewStandardFeePolicy(), testNow)
	require.NoError(t, err)

	require.NotNil(t, bk.CancelledBy())
	assert.Equal(t, RoleProvider, *bk.CancelledBy())
	require.NotNil(t, bk.CancellationFeeCents(), "a zero fee is stored, not elided")
	assert.Zero(t, *bk.CancellationFeeCents())
}

func TestBooking_Cancel_ZeroFeeIsStored(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{
		scheduledAt: testNow.Add(96 * time.Hour),
	})

	err := bk.Cancel(ownerID, "no longer needed", NewStandardFeePolicy(), testNow)
	require.NoError(t, err)
	require.NotNil(t, bk.CancellationFeeCents())
	assert.Zero(t, *bk.CancellationFeeCents())
}

func TestBooking_Cancel_FromAccepted(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	_, err := bk.Accept(providerID, "", testNow)
	require.NoError(t, err)

	err = bk.Cancel(ownerID, "change of plans", NewStandardFeePolicy(), testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, bk.Status())
}

func TestBooking_Cancel_RequiresReason(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	err := bk.Cancel(ownerID, "", NewStandardFeePolicy(), testNow)
	assert.Equal(t, domain.CodeMissingReason, domain.CodeOf(err))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestBooking_Cancel_NonParticipant(t *testing.T) {
	bk := newTestBooking(t, uuid.New(), uuid.New(), testBookingParams{})

	err := bk.Cancel(uuid.New(), "reason", NewStandardFeePolicy(), testNow)
	assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestBooking_Complete(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	_, err := bk.Accept(providerID, "", testNow)
	require.NoError(t, err)

	err = bk.Complete(testNow.Add(73 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, bk.Status())
	require.NotNil(t, bk.CompletedAt())
}

func TestBooking_Complete_FromPendingFails(t *testing.T) {
	bk := newTestBooking(t, uuid.New(), uuid.New(), testBookingParams{})

	err := bk.Complete(testNow)
	assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
	assert.Equal(t, StatusPending, bk.Status())
}

// Terminal bookings reject every event and remain untouched.
func TestBooking_TerminalStatusesRejectAllEvents(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	policy := NewStandardFeePolicy()

	makeTerminal := map[string]func(t *testing.T) *Booking{
		"declined": func(t *testing.T) *Booking {
			bk := newTestBooking(t, ownerID, providerID, testBookingParams{})
			require.NoError(t, bk.Decline(providerID, "busy", testNow))
			return bk
		},
		"cancelled": func(t *testing.T) *Booking {
			bk := newTestBooking(t, ownerID, providerID, testBookingParams{})
			require.NoError(t, bk.Cancel(ownerID, "changed plans", policy, testNow))
			return bk
		},
		"completed": func(t *testing.T) *Booking {
			bk := newTestBooking(t, ownerID, providerID, testBookingParams{})
			_, err := bk.Accept(providerID, "", testNow)
			require.NoError(t, err)
			require.NoError(t, bk.Complete(testNow))
			return bk
		},
	}

	for name, build := range makeTerminal {
		t.Run(name, func(t *testing.T) {
			bk := build(t)
			before := bk.Status()

			if before != StatusAccepted {
				changed, err := bk.Accept(providerID, "", testNow)
				assert.False(t, changed)
				assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
			}
			err := bk.Decline(providerID, "reason", testNow)
			assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
			err = bk.Cancel(ownerID, "reason", policy, testNow)
			assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
			err = bk.Complete(testNow)
			assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))

			assert.Equal(t, before, bk.Status(), "a rejected event must not change the record")
		})
	}
}

func TestBooking_RoleOf(t *testing.T) {
	ownerID := uuid.New()
	providerID := uuid.New()
	bk := newTestBooking(t, ownerID, providerID, testBookingParams{})

	role, err := bk.RoleOf(ownerID)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, role)

	role, err = bk.RoleOf(providerID)
	require.NoError(t, err)
	assert.Equal(t, RoleProvider, role)

	_, err = bk.RoleOf(uuid.New())
	assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
}

func TestBooking_BoardingWithStay(t *testing.T) {
	arrival := testNow.Add(72 * time.Hour)
	stay := &StayPeriod{ArrivalAt: arrival, DepartureAt: arrival.Add(3 * 24 * time.Hour)}
	bk := newTestBooking(t, uuid.New(), uuid.New(), testBookingParams{
		serviceType: ServiceBoarding,
		scheduledAt: arrival,
		stay:        stay,
	})

	require.NotNil(t, bk.Stay())
	assert.Equal(t, 3, bk.Stay().Nights())
}
