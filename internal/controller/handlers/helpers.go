package handlers

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

func menuText(userName, provider string) string {
	return fmt.Sprintf(msgMenuTemplate, userName, provider)
}

// withList склеивает заголовок, нумерованный список и подвал
func withList(header string, items []string, footer string) string {
	text := header + "\n\n" + formatting.NumberedList(items)
	if footer != "" {
		text += "\n\n" + footer
	}
	return text
}

func serviceNames(catalog *model.Catalog) []string {
	services := catalog.Services()
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.DisplayName)
	}
	return names
}

func dayLabels(days []state.DayOption) []string {
	labels := make([]string, 0, len(days))
	for _, d := range days {
		labels = append(labels, d.Label)
	}
	return labels
}

func cancelLabels(options []state.CancelOption) []string {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Label)
	}
	return labels
}

// serviceLabel возвращает отображаемое имя услуги
func serviceLabel(catalog *model.Catalog, name string) string {
	if s, ok := catalog.Lookup(name); ok {
		return s.DisplayName
	}
	return name
}

func displayName(t *Turn) string {
	if name := strings.TrimSpace(t.UserName); name != "" {
		return name
	}
	return t.ContactID
}

func single(next state.Step, text string) Result {
	return Result{Messages: []string{text}, Next: next}
}
