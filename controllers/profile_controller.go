package controllers

import (
	"net/http"

	"healthbot/services"
	"healthbot/utils"

	"github.com/gin-gonic/gin"
)

// ProfileController serves the REST view of a user's profile and logs;
// mutation still goes through the chat flow only.
type ProfileController struct {
	Profiles *services.ProfileService
	Conv     *services.Conversation
}

func NewProfileController(profiles *services.ProfileService, conv *services.Conversation) *ProfileController {
	return &ProfileController{Profiles: profiles, Conv: conv}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID := c.GetUint("userID")
	user, err := pc.Profiles.Get(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	out := gin.H{
		"id":               user.ID,
		"email":            user.Email,
		"weight_kg":        user.WeightKg,
		"height_cm":        user.HeightCm,
		"age_years":        user.AgeYears,
		"activity_level":   user.ActivityLevel,
		"city":             user.City,
		"profile_complete": user.ProfileComplete(),
		"reminder": gin.H{
			"enabled": user.ReminderEnabled,
			"time":    user.ReminderTime,
		},
	}

	if user.WeightKg != nil && user.HeightCm != nil {
		if bmi, err := utils.CalculateBMI(float64(*user.HeightCm), float64(*user.WeightKg)); err == nil {
			out["bmi"] = bmi
			out["bmi_category"] = utils.BMICategory(bmi)
		}
	}

	c.JSON(http.StatusOK, out)
}

func (pc *ProfileController) GetDailyGoal(c *gin.Context) {
	userID := c.GetUint("userID")
	goal, err := pc.Conv.DailyGoalFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (pc *ProfileController) GetWaterLog(c *gin.Context) {
	userID := c.GetUint("userID")
	entries, err := pc.Profiles.WaterLog(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetWorkoutChart returns the kcal-over-time series the client renders.
func (pc *ProfileController) GetWorkoutChart(c *gin.Context) {
	userID := c.GetUint("userID")
	workouts, err := pc.Profiles.Workouts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type point struct {
		Date string  `json:"date"`
		Kind string  `json:"kind"`
		Kcal float64 `json:"kcal"`
	}
	points := make([]point, 0, len(workouts))
	for _, w := range workouts {
		points = append(points, point{
			Date: w.Date.Format("2006-01-02"),
			Kind: string(w.Kind),
			Kcal: w.EnergyKcal,
		})
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}
