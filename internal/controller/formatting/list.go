package formatting

import (
	"fmt"
	"strings"
)

// NumberedList выводит items как "1. a\n2. b"
func NumberedList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, item)
	}
	return sb.String()
}

// PluralizeAppointments возвращает "agendamento" или "agendamentos"
func PluralizeAppointments(count int) string {
	if count == 1 {
		return "agendamento"
	}
	return "agendamentos"
}
