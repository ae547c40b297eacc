package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

func validInput() AppointmentInput {
	return AppointmentInput{
		CustomerName:      "Ana",
		CustomerContactID: "5511999999999@c.us",
		ServiceType:       "corte",
		Date:              "2025-06-02",
		StartTime:         "09:00",
	}
}

func TestAppointmentService_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, newMemoryRepo(), sunday)

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.FindByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.CustomerName)
	assert.Equal(t, "5511999999999@c.us", got.CustomerContactID)
	assert.Equal(t, "corte", got.ServiceType)
	assert.Equal(t, "Gui", got.AttendantName)
	assert.Equal(t, "2025-06-02", got.Date)
	assert.Equal(t, "09:00", got.StartTime)
	assert.Equal(t, "09:30", got.EndTime)
	assert.Equal(t, 30, got.DurationMinutes)
	assert.False(t, got.IsPaid)
	assert.False(t, got.IsRecurring)
	assert.Equal(t, sunday, got.CreatedAt)
	assert.Equal(t, sunday, got.UpdatedAt)
}

func TestAppointmentService_CreateDurations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, newMemoryRepo(), sunday)

	in := validInput()
	in.ServiceType = "Corte e Barba"
	a, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "corte-e-barba", a.ServiceType)
	assert.Equal(t, 60, a.DurationMinutes)
	assert.Equal(t, "10:00", a.EndTime)

	in = validInput()
	in.StartTime, in.EndTime = "13:00", "13:45"
	a, err = svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 45, a.DurationMinutes)

	in = validInput()
	in.StartTime, in.EndTime = "15:00", "14:00"
	_, err = svc.Create(ctx, in)
	requireFieldErrors(t, err, "endTime")
}

func TestAppointmentService_CreateValidation(t *testing.T) {
	svc, _ := newTestServices(t, newMemoryRepo(), sunday)

	tests := []struct {
		name   string
		mutate func(*AppointmentInput)
		fields []string
	}{
		{"unknown service", func(in *AppointmentInput) { in.ServiceType = "massagem" }, []string{"serviceType"}},
		{"missing name and contact", func(in *AppointmentInput) { in.CustomerName, in.CustomerContactID = " ", "" }, []string{"customerName", "customerContactId"}},
		{"bad date", func(in *AppointmentInput) { in.Date = "02/06/2025" }, []string{"date"}},
		{"bad time", func(in *AppointmentInput) { in.StartTime = "9h" }, []string{"startTime"}},
		{"too short", func(in *AppointmentInput) { in.DurationMinutes = 4 }, []string{"durationMinutes"}},
		{"crosses midnight", func(in *AppointmentInput) { in.StartTime, in.DurationMinutes = "23:45", 30 }, []string{"endTime"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			requireFieldErrors(t, err, tt.fields...)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestAppointmentService_FindByIDMalformed(t *testing.T) {
	svc, _ := newTestServices(t, newMemoryRepo(), sunday)

	_, err := svc.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.FindByID(context.Background(), "2b1e0f2e-6a59-4f0c-9d67-0d5d2c1f6b11")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(context.Background(), "123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppointmentService_UpdateRecomputesEnd(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc, _ := newTestServices(t, repo, sunday)

	a, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	later := sunday.Add(time.Hour)
	svc.clock = FixedClock{T: later}

	start, duration, paid := "10:00", 45, true
	updated, err := svc.Update(ctx, a.ID.String(), AppointmentPatch{StartTime: &start, DurationMinutes: &duration, IsPaid: &paid})
	require.NoError(t, err)
	assert.Equal(t, "10:45", updated.EndTime)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, sunday, updated.CreatedAt)

	bad := "tosa"
	_, err = svc.Update(ctx, a.ID.String(), AppointmentPatch{ServiceType: &bad})
	requireFieldErrors(t, err, "serviceType")

	stored, err := svc.FindByID(ctx, a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "corte", stored.ServiceType)
}

func TestAppointmentService_DeleteAndFilter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, newMemoryRepo(), sunday)

	a, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	list, err := svc.FindMany(ctx, model.AppointmentFilter{Date: "2025-06-02", AttendantName: "Gui"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := svc.Delete(ctx, a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	_, err = svc.Delete(ctx, a.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppointmentService_StorageUnavailable(t *testing.T) {
	svc, _ := newTestServices(t, brokenRepo{}, sunday)

	_, err := svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errDown)

	_, err = svc.FindMany(context.Background(), model.AppointmentFilter{})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
