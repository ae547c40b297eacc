package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrSlotUnavailable    = errors.New("slot unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStartupConnection фатальная, только при старте
	ErrStartupConnection = errors.New("startup connection failed")
)

// FieldError ошибка одного поля записи
type FieldError struct {
	Field   string
	Message string
}

// ValidationError все поля, не прошедшие проверку
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation проверяет, содержит ли err *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// storageError переводит ошибки репозитория в ошибки сервиса
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return fmt.Errorf("%s: %w", op, ErrSlotUnavailable)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
}
