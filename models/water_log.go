package models

import (
	"time"

	"gorm.io/gorm"
)

// WaterLogEntry is one logged drink. Append-only; insertion order is
// chronological order.
type WaterLogEntry struct {
	gorm.Model
	UserID   uint      `gorm:"index;not null"`
	AmountML int       `gorm:"not null"`
	LoggedAt time.Time `gorm:"index;not null"`
}
