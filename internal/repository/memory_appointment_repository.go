package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/availability"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// MemoryAppointmentRepository хранит записи в памяти процесса. Правило непересечения то же,
// что у ограничения appointments_no_overlap
type MemoryAppointmentRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]model.Appointment
}

func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{items: make(map[uuid.UUID]model.Appointment)}
}

func (r *MemoryAppointmentRepository) Create(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, exists := r.items[a.ID]; exists {
		return fmt.Errorf("create appointment %s: %w", a.ID, ErrSlotTaken)
	}
	if r.collides(a) {
		return fmt.Errorf("create appointment: %w", ErrSlotTaken)
	}
	r.items[a.ID] = *a
	return nil
}

func (r *MemoryAppointmentRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *MemoryAppointmentRepository) List(_ context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, a := range r.items {
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		if filter.DateFrom != "" && a.Date < filter.DateFrom {
			continue
		}
		if filter.AttendantName != "" && a.AttendantName != filter.AttendantName {
			continue
		}
		if filter.CustomerContactID != "" && a.CustomerContactID != filter.CustomerContactID {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *MemoryAppointmentRepository) Update(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[a.ID]; !ok {
		return fmt.Errorf("update appointment %s: %w", a.ID, ErrNotFound)
	}
	if r.collides(a) {
		return fmt.Errorf("update appointment: %w", ErrSlotTaken)
	}
	r.items[a.ID] = *a
	return nil
}

func (r *MemoryAppointmentRepository) Delete(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	delete(r.items, id)
	return &a, nil
}

// collides сверяет a с остальными записями мастера за тот же день.
// Вызывать под блокировкой на запись
func (r *MemoryAppointmentRepository) collides(a *model.Appointment) bool {
	candidate, ok := availability.IntervalOf(a)
	if !ok {
		return false
	}
	for id, other := range r.items {
		if id == a.ID || other.AttendantName != a.AttendantName || other.Date != a.Date {
			continue
		}
		if other.StartTime == a.StartTime {
			return true
		}
		if iv, ok := availability.IntervalOf(&other); ok && iv.Overlaps(candidate) {
			return true
		}
	}
	return false
}
