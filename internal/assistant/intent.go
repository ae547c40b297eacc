package assistant

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/availability"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// BookingIntent запрос на запись из ответа модели
type BookingIntent struct {
	Service      string // каноническое имя из каталога
	Date         string // YYYY-MM-DD
	StartTime    string // HH:MM
	CustomerName string
}

type intentPayload struct {
	TipoDeServico   *string `json:"tipoDeServico"`
	DataAgendamento *string `json:"dataAgendamento"`
	HoraInicio      *string `json:"horaInicio"`
	NomeCliente     *string `json:"nomeCliente"`
}

// ParseBookingIntent принимает ответ, только если это ровно один JSON объект
// с четырьмя обязательными строковыми полями без лишних, с корректными датой и временем
// и услугой из каталога. Иначе ok=false
func ParseBookingIntent(reply string, catalog *model.Catalog) (BookingIntent, bool) {
	raw := stripCodeFence(reply)
	if !strings.HasPrefix(raw, "{") {
		return BookingIntent{}, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var p intentPayload
	if err := dec.Decode(&p); err != nil {
		return BookingIntent{}, false
	}
	if dec.More() {
		return BookingIntent{}, false
	}
	if p.TipoDeServico == nil || p.DataAgendamento == nil || p.HoraInicio == nil || p.NomeCliente == nil {
		return BookingIntent{}, false
	}

	intent := BookingIntent{
		Date:         strings.TrimSpace(*p.DataAgendamento),
		StartTime:    strings.TrimSpace(*p.HoraInicio),
		CustomerName: strings.TrimSpace(*p.NomeCliente),
	}
	svc, ok := catalog.Lookup(*p.TipoDeServico)
	if !ok || intent.CustomerName == "" {
		return BookingIntent{}, false
	}
	intent.Service = svc.Name
	if _, err := time.Parse(model.DateLayout, intent.Date); err != nil {
		return BookingIntent{}, false
	}
	if !availability.IsClock(intent.StartTime) {
		return BookingIntent{}, false
	}
	return intent, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
