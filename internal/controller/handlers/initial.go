package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
)

// handleInitialChoice обрабатывает выбор пункта главного меню
func (m *Machine) handleInitialChoice(ctx context.Context, t *Turn) (Result, error) {
	choice := strings.TrimSpace(t.Body)
	catalog := m.booking.Appointments().Catalog()

	switch choice {
	case "1":
		t.Conversation.Data = state.Data{}
		return single(state.StepAwaitingServiceChoice, withList(msgServicePrompt, serviceNames(catalog), "")), nil
	case "2":
		t.Conversation.Data = state.Data{}
		return Result{Next: state.StepAwaitingCancelChoice, Redispatch: true}, nil
	case "3":
		return single(state.StepNone, msgReschedule), nil
	case "4":
		return single(state.StepNone, msgSpeakToHuman), nil
	case "5":
		return single(state.StepNone, m.servicesInfo()), nil
	}

	// Свободный текст без активного диалога уходит ассистенту
	if t.Conversation.Step == state.StepInitial {
		if choice != "" && m.assistant != nil {
			return m.askAssistant(ctx, t, choice)
		}
		return single(state.StepAwaitingInitialChoice, m.Menu(displayName(t))), nil
	}

	m.logger.Warn("Invalid initial option",
		zap.String("contact_id", t.ContactID),
		zap.String("body", choice))
	return single(state.StepAwaitingInitialChoice, msgInvalidOptionPrefix+m.Menu(displayName(t))), nil
}

func (m *Machine) servicesInfo() string {
	services := m.booking.Appointments().Catalog().Services()
	items := make([]string, 0, len(services))
	for _, s := range services {
		items = append(items, fmt.Sprintf("%s (%s)", s.DisplayName, formatting.FormatDuration(m.booking.Appointments().DurationFor(s.Name))))
	}
	text := withList(msgServicesInfo, items, "")
	if m.profile.PixKey != "" {
		text += "\n\n" + fmt.Sprintf(msgPixInfo, m.profile.PixKey)
	}
	return text
}

// handleDefault отвечает на непредусмотренное состояние и завершает диалог
func (m *Machine) handleDefault(_ context.Context, _ *Turn) (Result, error) {
	return single(state.StepNone, msgDefault), nil
}
