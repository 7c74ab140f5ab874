package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`

	// Profile fields are collected one at a time through the chat flow.
	// Pointers so an unset field renders as a placeholder, never as zero.
	WeightKg      *int
	HeightCm      *int
	AgeYears      *int
	ActivityLevel *int // 1..5
	City          *string

	// Food calories are accumulated into a running counter; workouts get
	// dated entries in WorkoutLogEntry.
	LoggedCalories float64

	ReminderEnabled bool
	ReminderTime    string `gorm:"size:5"` // "HH:MM"
	LastRemindedAt  time.Time

	// ID of the chat message currently rendering the profile keyboard,
	// so edits land on the same message instead of stacking new ones.
	ProfileMessageID string `gorm:"size:64"`
}

// ProfileComplete reports whether every profile field has been set.
func (u *User) ProfileComplete() bool {
	return u.WeightKg != nil && u.HeightCm != nil && u.AgeYears != nil &&
		u.ActivityLevel != nil && u.City != nil
}
