package services

import "healthbot/models"

// Defaults substituted for unset profile fields when computing goals.
const (
	defaultGoalWeightKg = 70
	defaultGoalHeightCm = 170
	defaultGoalAgeYears = 25
	defaultGoalActivity = 1
)

var activityMultipliers = map[int]float64{
	1: 1.2,
	2: 1.375,
	3: 1.55,
	4: 1.725,
	5: 1.9,
}

// DailyGoal is a user's daily targets with progress so far.
type DailyGoal struct {
	CalorieGoal     int     `json:"calorie_goal"`
	CalorieProgress float64 `json:"calorie_progress"`
	WaterGoalML     int     `json:"water_goal_ml"`
	WaterProgressML int     `json:"water_progress_ml"`
}

// BasalMetabolicRate is the Mifflin–St Jeor estimate (male coefficient).
func BasalMetabolicRate(weightKg, heightCm, ageYears int) float64 {
	return 10*float64(weightKg) + 6.25*float64(heightCm) - 5*float64(ageYears) + 5
}

// CalorieGoal scales the BMR by the activity multiplier. Unknown levels
// fall back to the sedentary multiplier.
func CalorieGoal(weightKg, heightCm, ageYears, activity int) int {
	mult, ok := activityMultipliers[activity]
	if !ok {
		mult = 1.2
	}
	return int(BasalMetabolicRate(weightKg, heightCm, ageYears) * mult)
}

// WaterGoalML is 30 mL per kg of body weight.
func WaterGoalML(weightKg int) int {
	return weightKg * 30
}

// ComputeDailyGoal derives goals from the profile (substituting defaults
// for unset fields) and fills in progress from the logs.
//
// calorie_progress historically counts workout energy *burned* against
// the intake goal. countIntake selects the corrected variant that counts
// logged food calories instead.
func ComputeDailyGoal(user *models.User, waterTotalML int, workoutKcal float64, countIntake bool) DailyGoal {
	weight := defaultGoalWeightKg
	height := defaultGoalHeightCm
	age := defaultGoalAgeYears
	activity := defaultGoalActivity
	if user != nil {
		if user.WeightKg != nil {
			weight = *user.WeightKg
		}
		if user.HeightCm != nil {
			height = *user.HeightCm
		}
		if user.AgeYears != nil {
			age = *user.AgeYears
		}
		if user.ActivityLevel != nil {
			activity = *user.ActivityLevel
		}
	}

	progress := workoutKcal
	if countIntake && user != nil {
		progress = user.LoggedCalories
	}

	return DailyGoal{
		CalorieGoal:     CalorieGoal(weight, height, age, activity),
		CalorieProgress: progress,
		WaterGoalML:     WaterGoalML(weight),
		WaterProgressML: waterTotalML,
	}
}
