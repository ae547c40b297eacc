package availability

import (
	"fmt"
	"regexp"
	"strconv"
)

const minutesPerDay = 24 * 60

var clockRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock переводит "HH:MM" в минуты от полуночи
func ParseClock(s string) (int, error) {
	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// FormatClock переводит минуты от полуночи в "HH:MM" по модулю суток
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsClock проверяет формат "HH:MM"
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// AddMinutes возвращает start + minutes как "HH:MM" по модулю суток
func AddMinutes(start string, minutes int) (string, error) {
	m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return FormatClock(m + minutes), nil
}
