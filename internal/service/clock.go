package service

import (
	"time"

	"github.com/fabworks/orderapi/internal/domain"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC at storage precision
type SystemClock struct{}

func (SystemClock) Now() time.Time { return domain.Stamp(time.Now()) }
