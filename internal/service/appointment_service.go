package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/availability"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

const minutesPerDay = 24 * 60

// AppointmentRepository реализуют репозитории PostgreSQL и в памяти.
// GetByID и Delete возвращают nil, nil для отсутствующего id
type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) error
	Delete(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
}

// AppointmentInput данные для Create. EndTime учитывается, только если
// DurationMinutes равен нулю
type AppointmentInput struct {
	CustomerName      string
	CustomerContactID string
	ServiceType       string
	AttendantName     string
	Date              string
	StartTime         string
	EndTime           string
	DurationMinutes   int
	IsPaid            bool
	IsRecurring       bool
}

// AppointmentPatch поля для Update, nil значит не менять
type AppointmentPatch struct {
	CustomerName    *string
	ServiceType     *string
	AttendantName   *string
	Date            *string
	StartTime       *string
	DurationMinutes *int
	IsPaid          *bool
	IsRecurring     *bool
}

type AppointmentService struct {
	repo             AppointmentRepository
	catalog          *model.Catalog
	defaultAttendant string
	defaultDuration  int
	clock            Clock
	logger           *zap.Logger
}

func NewAppointmentService(
	repo AppointmentRepository,
	catalog *model.Catalog,
	defaultAttendant string,
	defaultDuration int,
	clock Clock,
	logger *zap.Logger,
) *AppointmentService {
	if defaultDuration < model.MinDurationMinutes {
		defaultDuration = model.DefaultDurationMinutes
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &AppointmentService{
		repo:             repo,
		catalog:          catalog,
		defaultAttendant: defaultAttendant,
		defaultDuration:  defaultDuration,
		clock:            clock,
		logger:           logger,
	}
}

func (s *AppointmentService) Catalog() *model.Catalog {
	return s.catalog
}

func (s *AppointmentService) DefaultAttendant() string {
	return s.defaultAttendant
}

// DurationFor возвращает длительность услуги или длительность по умолчанию
func (s *AppointmentService) DurationFor(serviceType string) int {
	if svc, ok := s.catalog.Lookup(serviceType); ok && svc.DurationMinutes >= model.MinDurationMinutes {
		return svc.DurationMinutes
	}
	return s.defaultDuration
}

// Create проверяет данные, вычисляет EndTime и сохраняет запись
func (s *AppointmentService) Create(ctx context.Context, in AppointmentInput) (*model.Appointment, error) {
	now := s.clock.Now()
	a := &model.Appointment{
		ID:                uuid.New(),
		CustomerName:      strings.TrimSpace(in.CustomerName),
		CustomerContactID: strings.TrimSpace(in.CustomerContactID),
		ServiceType:       in.ServiceType,
		AttendantName:     strings.TrimSpace(in.AttendantName),
		Date:              strings.TrimSpace(in.Date),
		StartTime:         strings.TrimSpace(in.StartTime),
		DurationMinutes:   in.DurationMinutes,
		IsPaid:            in.IsPaid,
		IsRecurring:       in.IsRecurring,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if a.AttendantName == "" {
		a.AttendantName = s.defaultAttendant
	}

	// Без длительности: берём её из endTime, иначе из каталога
	if a.DurationMinutes == 0 {
		if end := strings.TrimSpace(in.EndTime); end != "" && availability.IsClock(a.StartTime) {
			d, ok := durationBetween(a.StartTime, end)
			if !ok {
				return nil, &ValidationError{Fields: []FieldError{{
					Field:   "endTime",
					Message: "o horário de término deve ser posterior ao início",
				}}}
			}
			a.DurationMinutes = d
		} else {
			a.DurationMinutes = s.DurationFor(in.ServiceType)
		}
	}

	if err := s.validate(a); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, storageError("create appointment", err)
	}

	s.logger.Info("Appointment created",
		zap.String("appointment_id", a.ID.String()),
		zap.String("contact_id", a.CustomerContactID),
		zap.String("date", a.Date),
		zap.String("start_time", a.StartTime),
	)
	return a, nil
}

// FindMany возвращает записи по фильтру в хронологическом порядке
func (s *AppointmentService) FindMany(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageError("find appointments", err)
	}
	return list, nil
}

// FindByID возвращает ErrNotFound для неизвестного или кривого id
func (s *AppointmentService) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("find appointment %q: %w", id, ErrNotFound)
	}
	a, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, storageError("find appointment", err)
	}
	if a == nil {
		return nil, fmt.Errorf("find appointment %s: %w", uid, ErrNotFound)
	}
	return a, nil
}

// Update применяет patch, заново проверяет запись и пересчитывает EndTime с UpdatedAt
func (s *AppointmentService) Update(ctx context.Context, id string, patch AppointmentPatch) (*model.Appointment, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CustomerName != nil {
		a.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.ServiceType != nil {
		a.ServiceType = *patch.ServiceType
	}
	if patch.AttendantName != nil {
		a.AttendantName = strings.TrimSpace(*patch.AttendantName)
	}
	if patch.Date != nil {
		a.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.StartTime != nil {
		a.StartTime = strings.TrimSpace(*patch.StartTime)
	}
	if patch.DurationMinutes != nil {
		a.DurationMinutes = *patch.DurationMinutes
	}
	if patch.IsPaid != nil {
		a.IsPaid = *patch.IsPaid
	}
	if patch.IsRecurring != nil {
		a.IsRecurring = *patch.IsRecurring
	}

	if err := s.validate(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, storageError("update appointment", err)
	}
	return a, nil
}

// Delete удаляет запись и возвращает её
func (s *AppointmentService) Delete(ctx context.Context, id string) (*model.Appointment, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("delete appointment %q: %w", id, ErrNotFound)
	}
	a, err := s.repo.Delete(ctx, uid)
	if err != nil {
		return nil, storageError("delete appointment", err)
	}
	if a == nil {
		return nil, fmt.Errorf("delete appointment %s: %w", uid, ErrNotFound)
	}

	s.logger.Info("Appointment deleted",
		zap.String("appointment_id", a.ID.String()),
		zap.String("contact_id", a.CustomerContactID),
	)
	return a, nil
}

// validate нормализует услугу и вычисляет EndTime. Все ошибки
// собираются в один *ValidationError
func (s *AppointmentService) validate(a *model.Appointment) error {
	verr := &ValidationError{}

	if a.CustomerName == "" {
		verr.add("customerName", "nome do cliente é obrigatório")
	}
	if a.CustomerContactID == "" {
		verr.add("customerContactId", "contato do cliente é obrigatório")
	}
	if a.AttendantName == "" {
		verr.add("attendantName", "atendente é obrigatório")
	}

	if svc, ok := s.catalog.Lookup(a.ServiceType); ok {
		a.ServiceType = svc.Name
	} else {
		verr.add("serviceType", fmt.Sprintf("serviço %q não é oferecido", a.ServiceType))
	}

	if _, err := time.Parse(model.DateLayout, a.Date); err != nil {
		verr.add("date", "data deve estar no formato AAAA-MM-DD")
	}

	start, err := availability.ParseClock(a.StartTime)
	if err != nil {
		verr.add("startTime", "horário deve estar no formato HH:MM")
	}

	if a.DurationMinutes < model.MinDurationMinutes {
		verr.add("durationMinutes", fmt.Sprintf("duração mínima é de %d minutos", model.MinDurationMinutes))
	} else if err == nil {
		if start+a.DurationMinutes >= minutesPerDay {
			verr.add("endTime", "o horário de término deve ser no mesmo dia")
		} else {
			a.EndTime = availability.FormatClock(start + a.DurationMinutes)
		}
	}

	return verr.errOrNil()
}

func durationBetween(start, end string) (int, bool) {
	from, err := availability.ParseClock(start)
	if err != nil {
		return 0, false
	}
	to, err := availability.ParseClock(end)
	if err != nil || to <= from {
		return 0, false
	}
	return to - from, true
}
