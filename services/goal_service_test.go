package services

import (
	"testing"

	"healthbot/models"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestCalorieGoalExample(t *testing.T) {
	// BMR = 10*75 + 6.25*180 - 5*25 + 5 = 1755; x1.55 = 2720 (truncated)
	assert.Equal(t, 1755.0, BasalMetabolicRate(75, 180, 25))
	assert.Equal(t, 2720, CalorieGoal(75, 180, 25, 3))
}

func TestCalorieGoalUnknownActivityFallsBack(t *testing.T) {
	assert.Equal(t, CalorieGoal(75, 180, 25, 1), CalorieGoal(75, 180, 25, 0))
	assert.Equal(t, CalorieGoal(75, 180, 25, 1), CalorieGoal(75, 180, 25, 99))
}

func TestWaterGoal(t *testing.T) {
	assert.Equal(t, 2250, WaterGoalML(75))
	assert.Equal(t, 2100, WaterGoalML(70))
}

func TestComputeDailyGoalUsesDefaultsForUnsetFields(t *testing.T) {
	goal := ComputeDailyGoal(&models.User{}, 0, 0, false)
	// defaults: weight 70, height 170, age 25, activity 1
	assert.Equal(t, CalorieGoal(70, 170, 25, 1), goal.CalorieGoal)
	assert.Equal(t, 2100, goal.WaterGoalML)

	// nil user behaves the same as an all-unset profile
	assert.Equal(t, goal, ComputeDailyGoal(nil, 0, 0, false))
}

func TestComputeDailyGoalProgress(t *testing.T) {
	user := &models.User{
		WeightKg:       intp(75),
		HeightCm:       intp(180),
		AgeYears:       intp(25),
		ActivityLevel:  intp(3),
		LoggedCalories: 900,
	}

	goal := ComputeDailyGoal(user, 1200, 252, false)
	assert.Equal(t, 2720, goal.CalorieGoal)
	assert.Equal(t, 2250, goal.WaterGoalML)
	assert.Equal(t, 1200, goal.WaterProgressML)
	// literal behavior: progress counts energy burned by workouts
	assert.Equal(t, 252.0, goal.CalorieProgress)

	// corrected variant counts food calories eaten instead
	corrected := ComputeDailyGoal(user, 1200, 252, true)
	assert.Equal(t, 900.0, corrected.CalorieProgress)
}

func TestComputeDailyGoalIsPure(t *testing.T) {
	user := &models.User{WeightKg: intp(80), HeightCm: intp(175), AgeYears: intp(30), ActivityLevel: intp(2)}
	first := ComputeDailyGoal(user, 500, 100, false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeDailyGoal(user, 500, 100, false))
	}
}
