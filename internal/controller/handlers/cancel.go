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
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

// handleCancelListing показывает активные записи пользователя
func (m *Machine) handleCancelListing(ctx context.Context, t *Turn) (Result, error) {
	appointments, err := m.booking.ActiveAppointments(ctx, t.ContactID)
	if err != nil {
		return Result{}, fmt.Errorf("list active appointments: %w", err)
	}
	if len(appointments) == 0 {
		return single(state.StepNone, msgNoAppointments), nil
	}

	catalog := m.booking.Appointments().Catalog()
	options := make([]state.CancelOption, 0, len(appointments))
	for i, a := range appointments {
		options = append(options, state.CancelOption{
			Key: strconv.Itoa(i + 1),
			ID:  a.ID.String(),
			Label: fmt.Sprintf("%s em %s às %s",
				serviceLabel(catalog, a.ServiceType), formatting.FormatISODate(a.Date), a.StartTime),
		})
	}
	t.Conversation.Data = state.Data{Cancelable: options}
	header := fmt.Sprintf(msgCancelHeader, len(options), formatting.PluralizeAppointments(len(options)))
	return single(state.StepAwaitingCancelSelection, withList(header, cancelLabels(options), "")), nil
}

// handleCancelSelection отменяет выбранную запись
func (m *Machine) handleCancelSelection(ctx context.Context, t *Turn) (Result, error) {
	options := t.Conversation.Data.Cancelable
	key := strings.TrimSpace(t.Body)

	var chosen *state.CancelOption
	for i := range options {
		if options[i].Key == key {
			chosen = &options[i]
			break
		}
	}
	if chosen == nil {
		return single(state.StepAwaitingCancelSelection, withList(msgCancelInvalid, cancelLabels(options), "")), nil
	}

	a, err := m.booking.Cancel(ctx, chosen.ID)
	if errors.Is(err, service.ErrNotFound) {
		m.logger.Warn("Appointment to cancel not found",
			zap.String("contact_id", t.ContactID),
			zap.String("appointment_id", chosen.ID))
		return Result{
			Messages:   []string{msgCancelGone},
			Next:       state.StepAwaitingCancelChoice,
			Redispatch: true,
		}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("cancel appointment: %w", err)
	}

	label := serviceLabel(m.booking.Appointments().Catalog(), a.ServiceType)
	return single(state.StepNone, fmt.Sprintf(msgCancelDone, label, formatting.FormatISODate(a.Date), a.StartTime)), nil
}
