package services

import "healthbot/models"

// kcal burned per kg of body weight per minute, by workout kind.
var workoutRates = map[models.WorkoutKind]float64{
	models.WorkoutRun:     0.12,
	models.WorkoutWalk:    0.05,
	models.WorkoutSquat:   0.1,
	models.WorkoutPlank:   0.08,
	models.WorkoutPullups: 0.11,
}

const (
	// DefaultWeightKg is assumed when the profile weight is unset.
	DefaultWeightKg = 70
	// neutralTempC zeroes the heat term of the water-loss estimate.
	neutralTempC = 20.0
)

// WorkoutEnergy estimates kcal burned. Unknown kinds burn nothing.
func WorkoutEnergy(kind models.WorkoutKind, weightKg, durationMin int) float64 {
	if weightKg <= 0 {
		weightKg = DefaultWeightKg
	}
	return workoutRates[kind] * float64(weightKg) * float64(durationMin)
}

// WorkoutWaterLoss estimates sweat loss in mL. The heat term only kicks
// in above 20°C; below that the base rate of 0.5 mL/min applies.
func WorkoutWaterLoss(durationMin int, tempC float64) float64 {
	heat := tempC - neutralTempC
	if heat < 0 {
		heat = 0
	}
	return float64(durationMin) * (0.5 + heat*0.02)
}
