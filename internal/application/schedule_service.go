package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/doglife-marketplace/service-booking/internal/domain/booking"
)

// ScheduleDay is one calendar day of a participant's schedule.
type ScheduleDay struct {
	Date     string       `json:"date"` // YYYY-MM-DD
	Bookings []BookingDTO `json:"bookings"`
}

// ScheduleDTO groups a participant's bookings by day and status for display.
// It carries no rules of its own; the statuses come straight from the
// lifecycle engine.
type ScheduleDTO struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Days     []ScheduleDay    `json:"days"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ScheduleService is the thin calendar/list aggregator over the booking
// repository.
type ScheduleService struct {
	repo bookingDomain.BookingRepository
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(repo bookingDomain.BookingRepository) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// GetSchedule returns the user's bookings within [from, to), grouped by
// calendar day. Days are sorted ascending and bookings within a day are
// ordered by scheduled time.
func (s *ScheduleService) GetSchedule(ctx context.Context, userID uuid.UUID, from, to time.Time) (*ScheduleDTO, error) {
	bookings, err := s.repo.FindByParticipantBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return buildSchedule(bookings, from, to), nil
}

func buildSchedule(bookings []*bookingDomain.Booking, from, to time.Time) *ScheduleDTO {
	byDay := make(map[string][]BookingDTO)
	byStatus := make(map[string]int64)

	for _, bk := range bookings {
		day := bk.ScheduledAt().UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], toBookingDTO(bk))
		byStatus[string(bk.Status())]++
	}

	days := make([]ScheduleDay, 0, len(byDay))
	for date, dtos := range byDay {
		sort.Slice(dtos, func(i, j int) bool {
			return dtos[i].ScheduledAt.Before(dtos[j].ScheduledAt)
		})
		days = append(days, ScheduleDay{Date: date, Bookings: dtos})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return &ScheduleDTO{
		From:     from,
		To:       to,
		Days:     days,
		ByStatus: byStatus,
	}
}
