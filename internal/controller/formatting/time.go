package formatting

import (
	"fmt"
	"time"
)

const (
	dateLayout    = "02/01/2006"
	isoDateLayout = "2006-01-02"
)

// FormatDate форматирует дату как DD/MM/YYYY
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatISODate переводит "2025-06-02" в "02/06/2025". Нераспознанное возвращается как есть
func FormatISODate(date string) string {
	t, err := time.Parse(isoDateLayout, date)
	if err != nil {
		return date
	}
	return FormatDate(t)
}

// DayLabel возвращает "Segunda-feira, 02/06/2025"
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%s, %s", WeekdayName(t.Weekday()), FormatDate(t))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%02d", hours, mins)
}

// WeekdayName возвращает название дня недели на португальском
func WeekdayName(weekday time.Weekday) string {
	names := []string{
		"Domingo",
		"Segunda-feira",
		"Terça-feira",
		"Quarta-feira",
		"Quinta-feira",
		"Sexta-feira",
		"Sábado",
	}
	if weekday >= 0 && int(weekday) < len(names) {
		return names[weekday]
	}
	return "?"
}
