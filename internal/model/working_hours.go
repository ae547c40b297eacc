package model

import (
	"fmt"
	"strings"
	"time"
)

// WorkingWindow рабочий интервал дня, [Start, End)
type WorkingWindow struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

func (w WorkingWindow) String() string {
	return w.Start + "-" + w.End
}

// ParseWorkingWindow разбирает "08:00-12:00"
func ParseWorkingWindow(s string) (WorkingWindow, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return WorkingWindow{}, fmt.Errorf("invalid working window %q", s)
	}
	w := WorkingWindow{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}

	start, err := time.Parse(ClockLayout, w.Start)
	if err != nil {
		return WorkingWindow{}, fmt.Errorf("invalid working window %q: %w", s, err)
	}
	end, err := time.Parse(ClockLayout, w.End)
	if err != nil {
		return WorkingWindow{}, fmt.Errorf("invalid working window %q: %w", s, err)
	}
	if !end.After(start) {
		return WorkingWindow{}, fmt.Errorf("invalid working window %q: end must be after start", s)
	}
	return w, nil
}

// WeeklyHours рабочие интервалы по дням недели. День без интервалов выходной
type WeeklyHours map[time.Weekday][]WorkingWindow

// WindowsFor возвращает интервалы для дня недели day
func (h WeeklyHours) WindowsFor(day time.Time) []WorkingWindow {
	return h[day.Weekday()]
}

// IsBusinessDay проверяет, есть ли у дня хотя бы один интервал
func (h WeeklyHours) IsBusinessDay(day time.Time) bool {
	return len(h[day.Weekday()]) > 0
}

// DefaultWeeklyHours: понедельник-пятница, 08:00-12:00 и 13:00-20:00.
func DefaultWeeklyHours() WeeklyHours {
	day := []WorkingWindow{{Start: "08:00", End: "12:00"}, {Start: "13:00", End: "20:00"}}
	hours := make(WeeklyHours, 5)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		hours[wd] = append([]WorkingWindow(nil), day...)
	}
	return hours
}
