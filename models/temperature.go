package models

import (
	"time"

	"gorm.io/gorm"
)

// TemperatureReading is one point of an imported historical series.
type TemperatureReading struct {
	gorm.Model
	City         string    `gorm:"index;not null"`
	Timestamp    time.Time `gorm:"index;not null"`
	TemperatureC float64   `gorm:"not null"`
	Season       string    `gorm:"size:8;index"` // winter | spring | summer | autumn
}
