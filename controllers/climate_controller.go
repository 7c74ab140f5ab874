package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"healthbot/services"

	"github.com/gin-gonic/gin"
)

// ClimateController is the dashboard API over the imported temperature
// history.
type ClimateController struct {
	Svc *services.ClimateService
}

func NewClimateController(svc *services.ClimateService) *ClimateController {
	return &ClimateController{Svc: svc}
}

// POST /climate/upload — multipart CSV with timestamp,city,temperature[,season]
func (cl *ClimateController) Upload(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	n, err := cl.Svc.ImportCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": n})
}

func (cl *ClimateController) Cities(c *gin.Context) {
	cities, err := cl.Svc.Cities()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// GET /climate/:city/stats
func (cl *ClimateController) Stats(c *gin.Context) {
	points, ok := cl.series(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"describe": services.Describe(points),
		"seasonal": services.SeasonalStats(points),
	})
}

// GET /climate/:city/series — anomaly-flagged readings plus smoothing
func (cl *ClimateController) Series(c *gin.Context) {
	points, ok := cl.series(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points":   services.DetectAnomalies(points),
		"smoothed": services.SmoothSeries(points),
	})
}

// GET /climate/:city/live?api_key=...
func (cl *ClimateController) Live(c *gin.Context) {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}

	gateway := services.NewWeatherServiceWithKey(apiKey)
	result, err := cl.Svc.LiveCheck(c.Request.Context(), c.Param("city"), gateway, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key (401)"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /climate/compare?cities=Moscow,Berlin
func (cl *ClimateController) Compare(c *gin.Context) {
	raw := c.Query("cities")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cities is required"})
		return
	}

	series, err := cl.Svc.Compare(strings.Split(raw, ","))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

// GET /climate/:city/years and /climate/:city/overlay?years=2019,2020
func (cl *ClimateController) Years(c *gin.Context) {
	years, err := cl.Svc.Years(c.Param("city"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

func (cl *ClimateController) Overlay(c *gin.Context) {
	var years []int
	if raw := c.Query("years"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			y, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad years parameter"})
				return
			}
			years = append(years, y)
		}
	}

	points, err := cl.Svc.YearOverlay(c.Param("city"), years)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// GET /climate/map?api_key=...
func (cl *ClimateController) WeatherMap(c *gin.Context) {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}

	gateway := services.NewWeatherServiceWithKey(apiKey)
	markers, err := cl.Svc.WeatherMap(c.Request.Context(), gateway)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key (401)"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"markers": markers})
}

func (cl *ClimateController) series(c *gin.Context) ([]services.TempPoint, bool) {
	points, err := cl.Svc.Series(c.Param("city"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return points, true
}
