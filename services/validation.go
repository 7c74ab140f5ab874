package services

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Field identifies one unit of chat input subject to validation.
type Field string

const (
	FieldWeight          Field = "weight"
	FieldHeight          Field = "height"
	FieldAge             Field = "age"
	FieldActivity        Field = "activity"
	FieldCity            Field = "city"
	FieldWaterAmount     Field = "water_amount"
	FieldWorkoutDuration Field = "workout_duration"
	FieldFoodWeight      Field = "food_weight"
	FieldReminderTime    Field = "reminder_time"
)

// ErrInvalidValue covers both parse failures and out-of-range values.
// Callers re-prompt with one generic message either way.
var ErrInvalidValue = errors.New("invalid value")

// ValidateInt parses raw and checks it against the field's bounds.
func ValidateInt(field Field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidValue
	}
	switch field {
	case FieldWeight:
		if v < 30 || v > 300 {
			return 0, ErrInvalidValue
		}
	case FieldHeight:
		if v < 100 || v > 250 {
			return 0, ErrInvalidValue
		}
	case FieldAge:
		if v < 5 || v > 120 {
			return 0, ErrInvalidValue
		}
	case FieldActivity:
		if v < 1 || v > 5 {
			return 0, ErrInvalidValue
		}
	case FieldWaterAmount, FieldWorkoutDuration:
		if v <= 0 {
			return 0, ErrInvalidValue
		}
	default:
		return 0, ErrInvalidValue
	}
	return v, nil
}

// ValidateCity accepts non-empty strings of letters only.
func ValidateCity(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidValue
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", ErrInvalidValue
		}
	}
	return s, nil
}

// ValidateFoodWeight accepts a positive number of grams.
func ValidateFoodWeight(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidValue
	}
	return v, nil
}

// ValidateReminderTime accepts "HH:MM" with HH in 0..23 and MM in 0..59.
// Returns the input normalized to its trimmed form.
func ValidateReminderTime(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", ErrInvalidValue
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ErrInvalidValue
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", ErrInvalidValue
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", ErrInvalidValue
	}
	return s, nil
}
