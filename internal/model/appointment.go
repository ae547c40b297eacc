package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDurationMinutes = 30 // Длительность по умолчанию
	MinDurationMinutes     = 5
)

// Appointment подтверждённая запись к мастеру
type Appointment struct {
	ID                uuid.UUID `json:"id"`
	CustomerName      string    `json:"customer_name"`
	CustomerContactID string    `json:"customer_contact_id"` // идентификатор чата (телефон)
	ServiceType       string    `json:"service_type"`
	AttendantName     string    `json:"attendant_name"`
	Date              string    `json:"date"`       // YYYY-MM-DD
	StartTime         string    `json:"start_time"` // HH:MM
	EndTime           string    `json:"end_time"`   // HH:MM, start + duration
	DurationMinutes   int       `json:"duration_minutes"`
	IsPaid            bool      `json:"is_paid"`
	IsRecurring       bool      `json:"is_recurring"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StartsAt возвращает начало записи в часовом поясе loc
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, a.Date+" "+a.StartTime, loc)
}

// EndsAt возвращает конец записи в часовом поясе loc
func (a *Appointment) EndsAt(loc *time.Location) (time.Time, error) {
	start, err := a.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.DurationMinutes) * time.Minute), nil
}

// AppointmentFilter описывает выборку записей. Пустые поля не фильтруют.
type AppointmentFilter struct {
	Date              string // точная дата
	AttendantName     string
	CustomerContactID string
	DateFrom          string // включительно
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)
