package model

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Service услуга из каталога
type Service struct {
	Name            string `json:"name"`             // canonical, e.g. "corte-masculino"
	DisplayName     string `json:"display_name"`     // as configured
	DurationMinutes int    `json:"duration_minutes"` // 0 = default duration
}

// Catalog упорядоченный список услуг только для чтения. Ключи в меню начинаются с 1
type Catalog struct {
	services []Service
}

// NewCatalog создаёт каталог: нормализует имена, пропускает пустые и повторы
func NewCatalog(services []Service) *Catalog {
	c := &Catalog{}
	seen := make(map[string]struct{}, len(services))
	for _, s := range services {
		name := NormalizeServiceName(s.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(s.DisplayName) == "" {
			s.DisplayName = strings.TrimSpace(s.Name)
		}
		s.Name = name
		c.services = append(c.services, s)
	}
	return c
}

// Services возвращает копию списка услуг
func (c *Catalog) Services() []Service {
	return append([]Service(nil), c.services...)
}

func (c *Catalog) Len() int {
	return len(c.services)
}

// ByKey находит услугу по номеру в меню ("1", "2", ...)
func (c *Catalog) ByKey(key string) (Service, bool) {
	key = strings.TrimSpace(key)
	for i, s := range c.services {
		if key == strconv.Itoa(i+1) {
			return s, true
		}
	}
	return Service{}, false
}

// Lookup находит услугу по имени в любом написании
func (c *Catalog) Lookup(name string) (Service, bool) {
	name = NormalizeServiceName(name)
	for _, s := range c.services {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// Contains проверяет, есть ли услуга в каталоге
func (c *Catalog) Contains(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// NormalizeServiceName converts "Corte Masculino" to "corte-masculino" and "Pé" to "pe".
func NormalizeServiceName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	fields := strings.FieldsFunc(strings.ToLower(stripped), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}
