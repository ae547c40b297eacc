package availability

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// DefaultStepMinutes шаг между кандидатами на время начала
const DefaultStepMinutes = 30

var ErrInvalidDuration = errors.New("duration must be positive")

// Interval полуоткрытый интервал [Start, End) в минутах от полуночи
type Interval struct {
	Start int
	End   int
}

// Overlaps проверяет пересечение полуоткрытых интервалов
func (i Interval) Overlaps(o Interval) bool {
	return max(i.Start, o.Start) < min(i.End, o.End)
}

// IntervalOf возвращает занятый записью интервал. Для битых записей
// ok=false, такие записи пропускаются
func IntervalOf(a *model.Appointment) (Interval, bool) {
	start, err := ParseClock(a.StartTime)
	if err != nil {
		return Interval{}, false
	}
	duration := a.DurationMinutes
	if duration <= 0 {
		end, err := ParseClock(a.EndTime)
		if err != nil || end <= start {
			return Interval{}, false
		}
		return Interval{Start: start, End: end}, true
	}
	return Interval{Start: start, End: start + duration}, true
}

// Slots считает свободное время начала на один день.
//
// В каждом интервале кандидаты идут от начала с шагом step, пока
// start+duration помещается в интервал. Кандидат остаётся, только если
// не пересекает занятые интервалы. Результат по возрастанию,
// без свободных слотов пустой срез
func Slots(windows []model.WorkingWindow, durationMinutes, stepMinutes int, booked []Interval) ([]string, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if stepMinutes <= 0 {
		stepMinutes = DefaultStepMinutes
	}

	seen := make(map[int]struct{})
	starts := make([]int, 0)

	for _, w := range windows {
		open, err := ParseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("working window %s: %w", w, err)
		}
		closeAt, err := ParseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("working window %s: %w", w, err)
		}

		for start := open; start+durationMinutes <= closeAt; start += stepMinutes {
			candidate := Interval{Start: start, End: start + durationMinutes}
			if overlapsAny(candidate, booked) {
				continue
			}
			if _, dup := seen[start]; dup {
				continue
			}
			seen[start] = struct{}{}
			starts = append(starts, start)
		}
	}

	sort.Ints(starts)

	result := make([]string, 0, len(starts))
	for _, s := range starts {
		result = append(result, FormatClock(s))
	}
	return result, nil
}

// NotBefore отбрасывает слоты, начинающиеся раньше minute
func NotBefore(slots []string, minute int) []string {
	result := make([]string, 0, len(slots))
	for _, s := range slots {
		m, err := ParseClock(s)
		if err != nil || m < minute {
			continue
		}
		result = append(result, s)
	}
	return result
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
