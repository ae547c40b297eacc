package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/repository"
)

var saoPaulo = mustLocation("America/Sao_Paulo")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testCatalog() *model.Catalog {
	return model.NewCatalog([]model.Service{
		{Name: "Corte"},
		{Name: "Barba"},
		{Name: "Corte e Barba", DurationMinutes: 60},
	})
}

func newTestServices(t *testing.T, repo AppointmentRepository, now time.Time) (*AppointmentService, *BookingService) {
	t.Helper()
	clock := FixedClock{T: now}
	appointments := NewAppointmentService(repo, testCatalog(), "Gui", 30, clock, zap.NewNop())
	booking := NewBookingService(appointments, BookingOptions{
		Hours:    model.DefaultWeeklyHours(),
		Location: saoPaulo,
		Clock:    clock,
	}, zap.NewNop())
	return appointments, booking
}

// sunday is 2025-06-01 10:00 in São Paulo; the next day is a Monday.
var sunday = time.Date(2025, 6, 1, 10, 0, 0, 0, saoPaulo)

type brokenRepo struct{}

var errDown = errors.New("connection refused")

func (brokenRepo) Create(context.Context, *model.Appointment) error { return errDown }
func (brokenRepo) GetByID(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, errDown
}
func (brokenRepo) List(context.Context, model.AppointmentFilter) ([]*model.Appointment, error) {
	return nil, errDown
}
func (brokenRepo) Update(context.Context, *model.Appointment) error { return errDown }
func (brokenRepo) Delete(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, errDown
}

func newMemoryRepo() *repository.MemoryAppointmentRepository {
	return repository.NewMemoryAppointmentRepository()
}

func requireFieldErrors(t *testing.T, err error, fields ...string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	got := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		got = append(got, f.Field)
	}
	require.ElementsMatch(t, fields, got)
}
