package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAppointmentRepository()

	a := sampleAppointment()
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.CustomerName)

	got.IsPaid = true
	require.NoError(t, repo.Update(ctx, got))
	again, _ := repo.GetByID(ctx, a.ID)
	assert.True(t, again.IsPaid)

	deleted, err := repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	missing, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	gone, err := repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	err = repo.Update(ctx, &model.Appointment{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_RejectsOverlap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAppointmentRepository()

	long := sampleAppointment()
	long.StartTime, long.EndTime, long.DurationMinutes = "09:00", "10:00", 60
	require.NoError(t, repo.Create(ctx, long))

	clash := sampleAppointment()
	clash.StartTime, clash.EndTime = "09:30", "10:00"
	assert.ErrorIs(t, repo.Create(ctx, clash), ErrSlotTaken)

	adjacent := sampleAppointment()
	adjacent.StartTime, adjacent.EndTime = "10:00", "10:30"
	assert.NoError(t, repo.Create(ctx, adjacent))

	other := sampleAppointment()
	other.AttendantName = "Bia"
	assert.NoError(t, repo.Create(ctx, other))
}

func TestMemoryRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAppointmentRepository()

	for _, tc := range []struct{ date, start, contact string }{
		{"2025-06-03", "10:00", "a"},
		{"2025-06-02", "11:00", "a"},
		{"2025-06-02", "08:00", "b"},
	} {
		a := sampleAppointment()
		a.Date, a.StartTime, a.CustomerContactID = tc.date, tc.start, tc.contact
		a.EndTime = ""
		require.NoError(t, repo.Create(ctx, a))
	}

	all, err := repo.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "08:00", all[0].StartTime)
	assert.Equal(t, "2025-06-03", all[2].Date)

	mine, _ := repo.List(ctx, model.AppointmentFilter{CustomerContactID: "a", DateFrom: "2025-06-03"})
	require.Len(t, mine, 1)
	assert.Equal(t, "10:00", mine[0].StartTime)

	none, _ := repo.List(ctx, model.AppointmentFilter{Date: "2025-07-01"})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAppointmentRepository()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, sampleAppointment()); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
