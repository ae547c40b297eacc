package service

import "time"

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock всегда возвращает T
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
