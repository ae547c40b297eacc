package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

// handleServiceChoice обрабатывает выбор услуги
func (m *Machine) handleServiceChoice(_ context.Context, t *Turn) (Result, error) {
	catalog := m.booking.Appointments().Catalog()
	svc, ok := catalog.ByKey(t.Body)
	if !ok {
		m.logger.Warn("Invalid service key",
			zap.String("contact_id", t.ContactID),
			zap.String("body", t.Body))
		return single(state.StepAwaitingServiceChoice, withList(msgServiceInvalid, serviceNames(catalog), "")), nil
	}

	t.Conversation.Data = state.Data{
		Service:         svc.Name,
		ServiceLabel:    svc.DisplayName,
		DurationMinutes: m.booking.Appointments().DurationFor(svc.Name),
	}
	m.logger.Info("Service chosen",
		zap.String("contact_id", t.ContactID),
		zap.String("service", svc.Name))
	return Result{Next: state.StepAwaitingDayChoice, Redispatch: true}, nil
}

// handleDayListing вычисляет ближайшие рабочие дни и показывает список.
// Ввод пользователя здесь не используется.
func (m *Machine) handleDayListing(_ context.Context, t *Turn) (Result, error) {
	data := &t.Conversation.Data
	data.SelectableDays = nil
	data.ChosenDate, data.ChosenDayLabel, data.AvailableTimes = "", "", nil

	days := m.booking.UpcomingDays()
	if len(days) == 0 {
		return single(state.StepNone, msgDaysNone), nil
	}

	for i, d := range days {
		data.SelectableDays = append(data.SelectableDays, state.DayOption{
			Key:   strconv.Itoa(i + 1),
			Date:  d.Format(model.DateLayout),
			Label: formatting.DayLabel(d),
		})
	}
	header := fmt.Sprintf(msgDaysHeader, data.ServiceLabel)
	return single(state.StepAwaitingDaySelectionFromList, withList(header, dayLabels(data.SelectableDays), msgDaysFooter)), nil
}

// handleDaySelection обрабатывает выбор дня из показанного списка
func (m *Machine) handleDaySelection(ctx context.Context, t *Turn) (Result, error) {
	data := &t.Conversation.Data
	key := strings.TrimSpace(t.Body)

	var chosen *state.DayOption
	for i := range data.SelectableDays {
		if data.SelectableDays[i].Key == key {
			chosen = &data.SelectableDays[i]
			break
		}
	}
	if chosen == nil {
		if len(data.SelectableDays) == 0 {
			// снимок потерян, строим список заново
			return Result{Next: state.StepAwaitingDayChoice, Redispatch: true}, nil
		}
		return single(state.StepAwaitingDaySelectionFromList, withList(msgDayInvalid, dayLabels(data.SelectableDays), "")), nil
	}

	slots, err := m.booking.AvailableSlots(ctx, chosen.Date, "", durationOf(data))
	if err != nil {
		return Result{}, fmt.Errorf("available slots for %s: %w", chosen.Date, err)
	}

	if len(slots) == 0 {
		m.logger.Info("No free slots on chosen day",
			zap.String("contact_id", t.ContactID),
			zap.String("date", chosen.Date))
		return Result{
			Messages:   []string{fmt.Sprintf(msgDayNoSlots, chosen.Label)},
			Next:       state.StepAwaitingDayChoice,
			Redispatch: true,
		}, nil
	}

	data.ChosenDate = chosen.Date
	data.ChosenDayLabel = chosen.Label
	data.AvailableTimes = slots

	header := fmt.Sprintf(msgTimesHeader, chosen.Label)
	return single(state.StepAwaitingTimeChoice, withList(header, slots, msgTimesFooter)), nil
}

// handleTimeChoice бронирует выбранный слот через повторную проверку доступности
func (m *Machine) handleTimeChoice(ctx context.Context, t *Turn) (Result, error) {
	data := &t.Conversation.Data
	if data.Service == "" || data.ChosenDate == "" || len(data.AvailableTimes) == 0 {
		m.logger.Error("Missing booking data at time choice",
			zap.String("contact_id", t.ContactID))
		return single(state.StepNone, msgTimeStale), nil
	}

	index, err := strconv.Atoi(strings.TrimSpace(t.Body))
	if err != nil || index < 1 || index > len(data.AvailableTimes) {
		return single(state.StepAwaitingTimeChoice, withList(msgTimeInvalid, data.AvailableTimes, "")), nil
	}
	startTime := data.AvailableTimes[index-1]

	a, err := m.booking.Book(ctx, service.BookingRequest{
		CustomerName:      displayName(t),
		CustomerContactID: t.ContactID,
		ServiceType:       data.Service,
		Date:              data.ChosenDate,
		StartTime:         startTime,
		DurationMinutes:   durationOf(data),
	})
	switch {
	case errors.Is(err, service.ErrSlotUnavailable):
		m.metrics.ObserveBooking("slot_taken")
		taken := fmt.Sprintf(msgSlotTaken, displayName(t), startTime,
			fmt.Sprintf("%s (%s)", weekdayOf(data.ChosenDayLabel), formatting.FormatISODate(data.ChosenDate)),
			data.ServiceLabel)
		return Result{
			Messages:   []string{taken, msgSlotRetry},
			Next:       state.StepAwaitingDayChoice,
			Redispatch: true,
		}, nil
	case service.IsValidation(err):
		m.metrics.ObserveBooking("invalid")
		return single(state.StepNone, fmt.Sprintf(msgBookingError, validationText(err))), nil
	case err != nil:
		m.metrics.ObserveBooking("error")
		return Result{}, fmt.Errorf("book slot: %w", err)
	}

	m.metrics.ObserveBooking("booked")
	return single(state.StepNone, m.confirmation(a, data.ServiceLabel, displayName(t))), nil
}

func (m *Machine) confirmation(a *model.Appointment, serviceLabel, userName string) string {
	text := fmt.Sprintf(msgConfirmation, serviceLabel, formatting.FormatISODate(a.Date), a.StartTime, m.profile.ProviderName, userName)
	if m.profile.PixKey != "" {
		text += "\n\n" + fmt.Sprintf(msgPixHint, m.profile.PixKey)
	}
	return text
}

func durationOf(data *state.Data) int {
	if data.DurationMinutes > 0 {
		return data.DurationMinutes
	}
	return model.DefaultDurationMinutes
}

// weekdayOf достаёт "Segunda-feira" из "Segunda-feira, 02/06/2025"
func weekdayOf(label string) string {
	if i := strings.Index(label, ","); i > 0 {
		return label[:i]
	}
	return label
}

func validationText(err error) string {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	parts := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		parts = append(parts, f.Message+".")
	}
	return strings.Join(parts, " ")
}
