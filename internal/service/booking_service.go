package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/availability"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/keylock"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// BookingRequest выбранная запись: услуга, день, время и клиент
type BookingRequest struct {
	CustomerName      string
	CustomerContactID string
	ServiceType       string
	AttendantName     string
	Date              string
	StartTime         string
	DurationMinutes   int // 0 = duration of the service
}

// BookingService считает свободные слоты и создаёт записи. Book перепроверяет
// слот прямо перед записью под блокировкой мастера и дня
type BookingService struct {
	appointments *AppointmentService
	hours        model.WeeklyHours
	stepMinutes  int
	daysAhead    int
	loc          *time.Location
	clock        Clock
	locks        *keylock.Mutex
	logger       *zap.Logger
}

type BookingOptions struct {
	Hours       model.WeeklyHours
	StepMinutes int
	DaysAhead   int
	Location    *time.Location
	Clock       Clock
}

func NewBookingService(appointments *AppointmentService, opts BookingOptions, logger *zap.Logger) *BookingService {
	if opts.Hours == nil {
		opts.Hours = model.DefaultWeeklyHours()
	}
	if opts.StepMinutes <= 0 {
		opts.StepMinutes = availability.DefaultStepMinutes
	}
	if opts.DaysAhead <= 0 {
		opts.DaysAhead = DefaultDaysAhead
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &BookingService{
		appointments: appointments,
		hours:        opts.Hours,
		stepMinutes:  opts.StepMinutes,
		daysAhead:    opts.DaysAhead,
		loc:          opts.Location,
		clock:        opts.Clock,
		locks:        keylock.New(),
		logger:       logger,
	}
}

func (s *BookingService) Appointments() *AppointmentService {
	return s.appointments
}

func (s *BookingService) Location() *time.Location {
	return s.loc
}

// Now текущее время в часовом поясе бизнеса
func (s *BookingService) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// UpcomingDays рабочие дни, доступные для записи
func (s *BookingService) UpcomingDays() []time.Time {
	return UpcomingBusinessDays(s.Now(), s.hours, s.daysAhead)
}

// AvailableSlots возвращает свободное время начала на дату для мастера.
// Кривая дата или неположительная длительность дают ErrInvalidInput.
// Прошедшая дата или выходной дают пустой список
func (s *BookingService) AvailableSlots(ctx context.Context, date, attendant string, durationMinutes int) ([]string, error) {
	day, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(date), s.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, ErrInvalidInput)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d: %w", durationMinutes, ErrInvalidInput)
	}
	if attendant == "" {
		attendant = s.appointments.DefaultAttendant()
	}

	now := s.Now()
	today := now.Format(model.DateLayout)
	if day.Format(model.DateLayout) < today {
		return []string{}, nil
	}

	windows := s.hours.WindowsFor(day)
	if len(windows) == 0 {
		return []string{}, nil
	}

	existing, err := s.appointments.FindMany(ctx, model.AppointmentFilter{
		Date:          day.Format(model.DateLayout),
		AttendantName: attendant,
	})
	if err != nil {
		return nil, err
	}

	booked := make([]availability.Interval, 0, len(existing))
	for _, a := range existing {
		if iv, ok := availability.IntervalOf(a); ok {
			booked = append(booked, iv)
		}
	}

	slots, err := availability.Slots(windows, durationMinutes, s.stepMinutes, booked)
	if err != nil {
		return nil, fmt.Errorf("compute slots: %w: %w", ErrInvalidInput, err)
	}

	// сегодня: прошедшее время не предлагаем
	if day.Format(model.DateLayout) == today {
		slots = availability.NotBefore(slots, now.Hour()*60+now.Minute()+1)
	}
	return slots, nil
}

// Book сохраняет req, если время ещё есть в AvailableSlots и дата
// не позже последнего предлагаемого дня. Иначе, как и при проигранной гонке,
// возвращает ErrSlotUnavailable и ничего не пишет
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	if req.AttendantName == "" {
		req.AttendantName = s.appointments.DefaultAttendant()
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = s.appointments.DurationFor(req.ServiceType)
	}

	unlock := s.locks.Lock(req.AttendantName + "|" + req.Date)
	defer unlock()

	slots, err := s.AvailableSlots(ctx, req.Date, req.AttendantName, req.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("recheck slots: %w", err)
	}
	if !slices.Contains(slots, req.StartTime) || !s.withinHorizon(req.Date) {
		s.logger.Warn("Slot no longer available",
			zap.String("contact_id", req.CustomerContactID),
			zap.String("date", req.Date),
			zap.String("start_time", req.StartTime),
		)
		return nil, fmt.Errorf("book %s %s: %w", req.Date, req.StartTime, ErrSlotUnavailable)
	}

	a, err := s.appointments.Create(ctx, AppointmentInput{
		CustomerName:      req.CustomerName,
		CustomerContactID: req.CustomerContactID,
		ServiceType:       req.ServiceType,
		AttendantName:     req.AttendantName,
		Date:              req.Date,
		StartTime:         req.StartTime,
		DurationMinutes:   req.DurationMinutes,
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			s.logger.Warn("Slot taken by a concurrent writer",
				zap.String("contact_id", req.CustomerContactID),
				zap.String("date", req.Date),
				zap.String("start_time", req.StartTime),
			)
		}
		return nil, err
	}
	return a, nil
}

// withinHorizon проверяет, что дата не позже последнего предлагаемого дня
func (s *BookingService) withinHorizon(date string) bool {
	days := s.UpcomingDays()
	if len(days) == 0 {
		return false
	}
	return strings.TrimSpace(date) <= days[len(days)-1].Format(model.DateLayout)
}

// ActiveAppointments записи контакта начиная с сегодня
func (s *BookingService) ActiveAppointments(ctx context.Context, contactID string) ([]*model.Appointment, error) {
	return s.appointments.FindMany(ctx, model.AppointmentFilter{
		CustomerContactID: contactID,
		DateFrom:          s.Now().Format(model.DateLayout),
	})
}

// Cancel удаляет запись по id
func (s *BookingService) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	return s.appointments.Delete(ctx, id)
}
