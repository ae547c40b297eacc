package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

func TestBookingService_AvailableSlots(t *testing.T) {
	ctx := context.Background()
	appointments, booking := newTestServices(t, newMemoryRepo(), sunday)

	slots, err := booking.AvailableSlots(ctx, "2025-06-02", "Gui", 30)
	require.NoError(t, err)
	assert.Len(t, slots, 8+14)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "19:30", slots[len(slots)-1])

	_, err = appointments.Create(ctx, validInput())
	require.NoError(t, err)

	slots, err = booking.AvailableSlots(ctx, "2025-06-02", "Gui", 30)
	require.NoError(t, err)
	assert.NotContains(t, slots, "09:00")
	assert.Len(t, slots, 21)

	other, err := booking.AvailableSlots(ctx, "2025-06-02", "Bia", 30)
	require.NoError(t, err)
	assert.Contains(t, other, "09:00")
}

func TestBookingService_AvailableSlotsEdgeCases(t *testing.T) {
	ctx := context.Background()
	_, booking := newTestServices(t, newMemoryRepo(), sunday)

	weekend, err := booking.AvailableSlots(ctx, "2025-06-07", "", 30)
	require.NoError(t, err)
	assert.NotNil(t, weekend)
	assert.Empty(t, weekend)

	_, err = booking.AvailableSlots(ctx, "amanhã", "", 30)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = booking.AvailableSlots(ctx, "2025-06-02", "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBookingService_TodaySkipsPastSlots(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 10, 0, 0, saoPaulo)
	_, booking := newTestServices(t, newMemoryRepo(), monday)

	slots, err := booking.AvailableSlots(context.Background(), "2025-06-02", "", 30)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, "10:30", slots[0])
}

func TestBookingService_PastDayHasNoSlots(t *testing.T) {
	ctx := context.Background()
	wednesday := time.Date(2025, 6, 4, 10, 0, 0, 0, saoPaulo)
	_, booking := newTestServices(t, newMemoryRepo(), wednesday)

	past, err := booking.AvailableSlots(ctx, "2025-06-02", "", 30)
	require.NoError(t, err)
	assert.NotNil(t, past)
	assert.Empty(t, past)

	req := bookingRequest()
	_, err = booking.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	list, err := booking.Appointments().FindMany(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBookingService_BookBeyondOfferedDays(t *testing.T) {
	ctx := context.Background()
	_, booking := newTestServices(t, newMemoryRepo(), sunday)

	// предлагаются 02..06 июня
	req := bookingRequest()
	req.Date = "2025-06-09"
	_, err := booking.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	req.Date = "2031-06-02"
	_, err = booking.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	req.Date = "2025-06-06"
	_, err = booking.Book(ctx, req)
	assert.NoError(t, err)
}

func bookingRequest() BookingRequest {
	return BookingRequest{
		CustomerName:      "Ana",
		CustomerContactID: "5511999999999@c.us",
		ServiceType:       "corte",
		Date:              "2025-06-02",
		StartTime:         "08:00",
	}
}

func TestBookingService_Book(t *testing.T) {
	ctx := context.Background()
	_, booking := newTestServices(t, newMemoryRepo(), sunday)

	a, err := booking.Book(ctx, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, "Gui", a.AttendantName)
	assert.Equal(t, "08:30", a.EndTime)

	_, err = booking.Book(ctx, bookingRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	req := bookingRequest()
	req.StartTime = "08:15"
	_, err = booking.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	active, err := booking.ActiveAppointments(ctx, "5511999999999@c.us")
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = booking.Cancel(ctx, active[0].ID.String())
	require.NoError(t, err)
	active, err = booking.ActiveAppointments(ctx, "5511999999999@c.us")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestBookingService_ConcurrentBookOneWinner(t *testing.T) {
	ctx := context.Background()
	_, booking := newTestServices(t, newMemoryRepo(), sunday)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = booking.Book(ctx, bookingRequest())
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, ErrSlotUnavailable), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	list, err := booking.Appointments().FindMany(ctx, model.AppointmentFilter{Date: "2025-06-02"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpcomingBusinessDays(t *testing.T) {
	hours := model.DefaultWeeklyHours()

	format := func(days []time.Time) []string {
		out := make([]string, 0, len(days))
		for _, d := range days {
			out = append(out, d.Format(model.DateLayout))
		}
		return out
	}

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"from sunday", sunday, []string{"2025-06-02", "2025-06-03", "2025-06-04", "2025-06-05", "2025-06-06"}},
		{"wednesday morning includes today", time.Date(2025, 6, 4, 9, 0, 0, 0, saoPaulo),
			[]string{"2025-06-04", "2025-06-05", "2025-06-06", "2025-06-09", "2025-06-10"}},
		{"wednesday after closing", time.Date(2025, 6, 4, 20, 30, 0, 0, saoPaulo),
			[]string{"2025-06-05", "2025-06-06", "2025-06-09", "2025-06-10", "2025-06-11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format(UpcomingBusinessDays(tt.now, hours, 5)))
		})
	}

	assert.Empty(t, UpcomingBusinessDays(sunday, model.WeeklyHours{}, 5))
	assert.Empty(t, UpcomingBusinessDays(sunday, hours, 0))
}
