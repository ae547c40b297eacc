package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/assistant"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

// HandleAssistant передаёт текст ассистенту мимо таблицы шагов.
// Шаг диалога не меняется
func (m *Machine) HandleAssistant(ctx context.Context, t *Turn, text string) ([]string, error) {
	if m.assistant == nil {
		return []string{msgAIUnavailable}, nil
	}
	current := t.Conversation.Step
	res, err := m.askAssistant(ctx, t, strings.TrimSpace(text))
	t.Conversation.Step = current
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// askAssistant возвращает ответ ассистента. Корректный запрос на запись
// вместо показа бронируется через BookingService.Book
func (m *Machine) askAssistant(ctx context.Context, t *Turn, text string) (Result, error) {
	if text == "" {
		return single(state.StepAwaitingInitialChoice, m.Menu(displayName(t))), nil
	}

	reply, err := m.assistant.Reply(ctx, t.ContactID, text)
	if err != nil {
		return Result{}, fmt.Errorf("assistant: %w", err)
	}

	intent, ok := assistant.ParseBookingIntent(reply, m.booking.Appointments().Catalog())
	if !ok {
		return single(state.StepNone, reply), nil
	}

	m.logger.Info("Booking intent from assistant",
		zap.String("contact_id", t.ContactID),
		zap.String("date", intent.Date),
		zap.String("start_time", intent.StartTime))

	catalog := m.booking.Appointments().Catalog()
	a, err := m.booking.Book(ctx, service.BookingRequest{
		CustomerName:      intent.CustomerName,
		CustomerContactID: t.ContactID,
		ServiceType:       intent.Service,
		Date:              intent.Date,
		StartTime:         intent.StartTime,
	})
	switch {
	case errors.Is(err, service.ErrSlotUnavailable), errors.Is(err, service.ErrInvalidInput):
		m.metrics.ObserveBooking("slot_taken")
		return single(state.StepNone, fmt.Sprintf(msgSlotTaken, intent.CustomerName, intent.StartTime,
			formatting.FormatISODate(intent.Date), serviceLabel(catalog, intent.Service))+" "+msgSlotRetry), nil
	case service.IsValidation(err):
		m.metrics.ObserveBooking("invalid")
		return single(state.StepNone, fmt.Sprintf(msgBookingError, validationText(err))), nil
	case err != nil:
		m.metrics.ObserveBooking("error")
		return Result{}, fmt.Errorf("book from assistant: %w", err)
	}

	m.metrics.ObserveBooking("booked")
	return single(state.StepNone, m.confirmation(a, serviceLabel(catalog, a.ServiceType), intent.CustomerName)), nil
}
