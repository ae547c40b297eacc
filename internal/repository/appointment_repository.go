package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/repository/base"
)

var (
	// ErrSlotTaken запись пересекается с существующей записью того же мастера
	ErrSlotTaken = errors.New("slot already taken")
	// ErrNotFound запись для изменения не найдена
	ErrNotFound = errors.New("appointment not found")
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var appointmentColumns = []string{
	"id",
	"customer_name",
	"customer_contact_id",
	"service_type",
	"attendant_name",
	"to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date",
	"start_time",
	"end_time",
	"duration_minutes",
	"is_paid",
	"is_recurring",
	"created_at",
	"updated_at",
}

type AppointmentRepository struct {
	*base.Repository
	loc *time.Location
}

// NewAppointmentRepository создаёт репозиторий записей. loc задаёт часовой пояс бизнеса.
func NewAppointmentRepository(db base.DB, loc *time.Location) *AppointmentRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentRepository{Repository: base.NewRepository(db), loc: loc}
}

// Create сохраняет новую запись
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	startsAt, endsAt, err := r.bounds(a)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query, args, err := psql.Insert("appointments").
		Columns(
			"id", "customer_name", "customer_contact_id", "service_type", "attendant_name",
			"appointment_date", "start_time", "end_time", "duration_minutes",
			"starts_at", "ends_at", "is_paid", "is_recurring", "created_at", "updated_at",
		).
		Values(
			a.ID, a.CustomerName, a.CustomerContactID, a.ServiceType, a.AttendantName,
			a.Date, a.StartTime, a.EndTime, a.DurationMinutes,
			startsAt, endsAt, a.IsPaid, a.IsRecurring, a.CreatedAt, a.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert appointment: %w", err)
	}

	if _, err := r.DB().Exec(ctx, query, args...); err != nil {
		if base.IsConflict(err) {
			return fmt.Errorf("create appointment: %w", ErrSlotTaken)
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetByID получает запись по ID. Возвращает nil, nil если записи нет.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select appointment: %w", err)
	}

	a, err := scanAppointment(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return a, nil
}

// List возвращает записи по фильтру в хронологическом порядке
func (r *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	builder := psql.Select(appointmentColumns...).From("appointments")
	if filter.Date != "" {
		builder = builder.Where(squirrel.Eq{"appointment_date": filter.Date})
	}
	if filter.DateFrom != "" {
		builder = builder.Where(squirrel.GtOrEq{"appointment_date": filter.DateFrom})
	}
	if filter.AttendantName != "" {
		builder = builder.Where(squirrel.Eq{"attendant_name": filter.AttendantName})
	}
	if filter.CustomerContactID != "" {
		builder = builder.Where(squirrel.Eq{"customer_contact_id": filter.CustomerContactID})
	}

	query, args, err := builder.OrderBy("appointment_date", "start_time").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list appointments: %w", err)
	}

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]*model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appointments, nil
}

// Update перезаписывает изменяемые поля записи
func (r *AppointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	startsAt, endsAt, err := r.bounds(a)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}

	query, args, err := psql.Update("appointments").
		SetMap(map[string]any{
			"customer_name":       a.CustomerName,
			"customer_contact_id": a.CustomerContactID,
			"service_type":        a.ServiceType,
			"attendant_name":      a.AttendantName,
			"appointment_date":    a.Date,
			"start_time":          a.StartTime,
			"end_time":            a.EndTime,
			"duration_minutes":    a.DurationMinutes,
			"starts_at":           startsAt,
			"ends_at":             endsAt,
			"is_paid":             a.IsPaid,
			"is_recurring":        a.IsRecurring,
			"updated_at":          a.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment: %w", err)
	}

	tag, err := r.DB().Exec(ctx, query, args...)
	if err != nil {
		if base.IsConflict(err) {
			return fmt.Errorf("update appointment: %w", ErrSlotTaken)
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update appointment %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// Delete удаляет запись и возвращает её. nil, nil если записи не было.
func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query, args, err := psql.Delete("appointments").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(appointmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete appointment: %w", err)
	}

	a, err := scanAppointment(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete appointment: %w", err)
	}
	return a, nil
}

func (r *AppointmentRepository) bounds(a *model.Appointment) (time.Time, time.Time, error) {
	startsAt, err := a.StartsAt(r.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endsAt, err := a.EndsAt(r.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startsAt, endsAt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.CustomerName,
		&a.CustomerContactID,
		&a.ServiceType,
		&a.AttendantName,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&a.IsPaid,
		&a.IsRecurring,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
