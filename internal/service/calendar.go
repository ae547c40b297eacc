package service

import (
	"time"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/availability"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// DefaultDaysAhead сколько рабочих дней предлагается в списке
const DefaultDaysAhead = 5

// UpcomingBusinessDays собирает k ближайших рабочих дней начиная с сегодняшнего.
// Сегодня входит, пока не закрылся последний интервал.
// Дни возвращаются полуночью в часовом поясе now
func UpcomingBusinessDays(now time.Time, hours model.WeeklyHours, k int) []time.Time {
	days := make([]time.Time, 0, k)
	if k <= 0 {
		return days
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !openLater(now, hours.WindowsFor(day)) {
		day = day.AddDate(0, 0, 1)
	}

	// неделя без рабочих дней: не зацикливаемся
	for scanned := 0; len(days) < k && scanned < 7*(k+1); scanned++ {
		if hours.IsBusinessDay(day) {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func openLater(now time.Time, windows []model.WorkingWindow) bool {
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		end, err := availability.ParseClock(w.End)
		if err == nil && minute < end {
			return true
		}
	}
	return false
}
