package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkoutKind string

const (
	WorkoutRun     WorkoutKind = "run"
	WorkoutWalk    WorkoutKind = "walk"
	WorkoutSquat   WorkoutKind = "squat"
	WorkoutPlank   WorkoutKind = "plank"
	WorkoutPullups WorkoutKind = "pullups"
)

// WorkoutKinds lists every selectable workout, in menu order.
var WorkoutKinds = []WorkoutKind{
	WorkoutRun, WorkoutWalk, WorkoutSquat, WorkoutPlank, WorkoutPullups,
}

func (k WorkoutKind) Valid() bool {
	switch k {
	case WorkoutRun, WorkoutWalk, WorkoutSquat, WorkoutPlank, WorkoutPullups:
		return true
	}
	return false
}

type WorkoutLogEntry struct {
	gorm.Model
	UserID      uint        `gorm:"index;not null"`
	Kind        WorkoutKind `gorm:"size:16;not null"`
	DurationMin int         `gorm:"not null"`
	EnergyKcal  float64
	WaterLossML float64
	Date        time.Time `gorm:"index;not null"` // truncate to YYYY-MM-DD
}
