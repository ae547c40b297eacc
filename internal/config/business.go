package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// DefaultTimezone единственный часовой пояс бизнеса
const DefaultTimezone = "America/Sao_Paulo"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type ServiceConfig struct {
	Name            string `toml:"name"`
	DurationMinutes int    `toml:"duration_minutes"`
}

// Business описание мастера из TOML файла
//
//	provider_name = "Gui"
//	pix_key = "gui@pix.com"
//
//	[[services]]
//	name = "Corte Masculino"
//	duration_minutes = 45
//
//	[hours]
//	monday = ["08:00-12:00", "13:00-20:00"]
type Business struct {
	ProviderName           string              `toml:"provider_name"`
	PixKey                 string              `toml:"pix_key"`
	Timezone               string              `toml:"timezone"`
	DefaultDurationMinutes int                 `toml:"default_duration_minutes"`
	StepMinutes            int                 `toml:"step_minutes"`
	DaysAhead              int                 `toml:"days_ahead"`
	Services               []ServiceConfig     `toml:"services"`
	Hours                  map[string][]string `toml:"hours"`
}

// DefaultBusiness используется, если файла нет
func DefaultBusiness() *Business {
	hours := make(map[string][]string, 5)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours[day] = []string{"08:00-12:00", "13:00-20:00"}
	}
	return &Business{
		ProviderName:           "Atendente",
		Timezone:               DefaultTimezone,
		DefaultDurationMinutes: model.DefaultDurationMinutes,
		StepMinutes:            30,
		DaysAhead:              5,
		Services:               []ServiceConfig{{Name: "Pé"}, {Name: "Unha"}},
		Hours:                  hours,
	}
}

// LoadBusiness читает path поверх значений по умолчанию. Отсутствие файла не ошибка
func LoadBusiness(path string) (*Business, error) {
	b := DefaultBusiness()
	if path == "" {
		return b, nil
	}

	// карта часов из файла заменяет дефолтную целиком, а не дополняет её
	defaultHours := b.Hours
	b.Hours = nil
	md, err := toml.DecodeFile(path, b)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultBusiness(), nil
		}
		return nil, fmt.Errorf("decode business config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("business config %s: unknown keys %v", path, undecoded)
	}
	if !md.IsDefined("hours") {
		b.Hours = defaultHours
	}
	return b, nil
}

func (b *Business) Validate() error {
	if strings.TrimSpace(b.ProviderName) == "" {
		return fmt.Errorf("business config: provider_name is required")
	}
	if b.Timezone != DefaultTimezone {
		return fmt.Errorf("business config: timezone must be %s, got %q", DefaultTimezone, b.Timezone)
	}
	if b.DefaultDurationMinutes < model.MinDurationMinutes {
		return fmt.Errorf("business config: default_duration_minutes must be at least %d", model.MinDurationMinutes)
	}
	if b.StepMinutes <= 0 {
		return fmt.Errorf("business config: step_minutes must be positive")
	}
	if b.DaysAhead <= 0 {
		return fmt.Errorf("business config: days_ahead must be positive")
	}
	if b.Catalog().Len() == 0 {
		return fmt.Errorf("business config: at least one service is required")
	}
	for _, s := range b.Services {
		if s.DurationMinutes != 0 && s.DurationMinutes < model.MinDurationMinutes {
			return fmt.Errorf("business config: service %q: duration_minutes must be at least %d", s.Name, model.MinDurationMinutes)
		}
	}
	if _, err := b.WeeklyHours(); err != nil {
		return err
	}
	return nil
}

// Catalog возвращает услуги в порядке файла
func (b *Business) Catalog() *model.Catalog {
	services := make([]model.Service, 0, len(b.Services))
	for _, s := range b.Services {
		services = append(services, model.Service{Name: s.Name, DurationMinutes: s.DurationMinutes})
	}
	return model.NewCatalog(services)
}

// WeeklyHours разбирает интервалы по дням. Интервалы одного дня не пересекаются
func (b *Business) WeeklyHours() (model.WeeklyHours, error) {
	hours := make(model.WeeklyHours, len(b.Hours))
	for day, specs := range b.Hours {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, fmt.Errorf("business config: unknown weekday %q", day)
		}
		var windows []model.WorkingWindow
		for _, spec := range specs {
			w, err := model.ParseWorkingWindow(spec)
			if err != nil {
				return nil, fmt.Errorf("business config: %s: %w", day, err)
			}
			for _, other := range windows {
				// HH:MM сравниваются как строки
				if w.Start < other.End && other.Start < w.End {
					return nil, fmt.Errorf("business config: %s: windows %s and %s overlap", day, other, w)
				}
			}
			windows = append(windows, w)
		}
		if len(windows) > 0 {
			slices.SortFunc(windows, func(a, b model.WorkingWindow) int { return strings.Compare(a.Start, b.Start) })
			hours[wd] = windows
		}
	}
	return hours, nil
}

// Location загружает часовой пояс бизнеса
func (b *Business) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", b.Timezone, err)
	}
	return loc, nil
}
