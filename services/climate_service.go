package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"healthbot/models"

	"gorm.io/gorm"
)

// ClimateService owns the imported historical temperature series and the
// derived dashboard views. Live lookups take a per-request gateway since
// the dashboard user supplies their own API credential.
type ClimateService struct {
	db *gorm.DB
}

func NewClimateService(db *gorm.DB) *ClimateService {
	return &ClimateService{db: db}
}

// ImportCSV ingests rows of "timestamp,city,temperature[,season]". The
// season column is optional; missing values derive from the month.
func (s *ClimateService) ImportCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("empty CSV")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "city", "temperature"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("CSV missing %q column", required)
		}
	}

	var readings []models.TemperatureReading
	for i, rec := range records[1:] {
		ts, err := parseTimestamp(rec[col["timestamp"]])
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+2, err)
		}
		temp, err := strconv.ParseFloat(rec[col["temperature"]], 64)
		if err != nil {
			return 0, fmt.Errorf("row %d: bad temperature %q", i+2, rec[col["temperature"]])
		}
		season := string(SeasonOf(ts.Month()))
		if idx, ok := col["season"]; ok && rec[idx] != "" {
			season = rec[idx]
		}
		readings = append(readings, models.TemperatureReading{
			City:         rec[col["city"]],
			Timestamp:    ts,
			TemperatureC: temp,
			Season:       season,
		})
	}

	if err := s.db.CreateInBatches(readings, 500).Error; err != nil {
		return 0, fmt.Errorf("failed to store readings: %w", err)
	}
	return len(readings), nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
}

func (s *ClimateService) Cities() ([]string, error) {
	var cities []string
	err := s.db.Model(&models.TemperatureReading{}).
		Distinct("city").
		Order("city asc").
		Pluck("city", &cities).Error
	return cities, err
}

// Series returns a city's readings in chronological order as detector
// input points.
func (s *ClimateService) Series(city string) ([]TempPoint, error) {
	var readings []models.TemperatureReading
	err := s.db.
		Where("city = ?", city).
		Order("timestamp asc, id asc").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("no readings for city %q", city)
	}

	points := make([]TempPoint, len(readings))
	for i, r := range readings {
		points[i] = TempPoint{
			Timestamp:    r.Timestamp,
			TemperatureC: r.TemperatureC,
			Season:       Season(r.Season),
		}
	}
	return points, nil
}

// DescriptiveStats mirrors a dataframe describe() block.
type DescriptiveStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

func Describe(points []TempPoint) DescriptiveStats {
	n := len(points)
	if n == 0 {
		return DescriptiveStats{}
	}

	values := make([]float64, n)
	var sum float64
	for i, p := range points {
		values[i] = p.TemperatureC
		sum += p.TemperatureC
	}
	sort.Float64s(values)
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := 0.0
	if n >= 2 {
		std = math.Sqrt(sq / float64(n-1))
	}

	return DescriptiveStats{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    values[0],
		P25:    quantile(values, 0.25),
		Median: quantile(values, 0.5),
		P75:    quantile(values, 0.75),
		Max:    values[n-1],
	}
}

// quantile interpolates linearly between order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// RollingMeanSeries pairs each point with its trailing 30-point mean.
type SmoothedPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
	RollingMean  float64   `json:"rolling_mean_30"`
}

const rollingWindow = 30

func SmoothSeries(points []TempPoint) []SmoothedPoint {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.TemperatureC
	}
	means := RollingMean(values, rollingWindow)

	out := make([]SmoothedPoint, len(points))
	for i, p := range points {
		out[i] = SmoothedPoint{
			Timestamp:    p.Timestamp,
			TemperatureC: p.TemperatureC,
			RollingMean:  means[i],
		}
	}
	return out
}

// LiveCheckResult is the dashboard's verdict on a fresh API reading.
type LiveCheckResult struct {
	City         string        `json:"city"`
	TemperatureC float64       `json:"temperature_c"`
	Season       Season        `json:"season"`
	SeasonMean   float64       `json:"season_mean"`
	SeasonStdDev float64       `json:"season_std_dev"`
	Status       AnomalyStatus `json:"status"`
}

// LiveCheck fetches the current temperature and classifies it against
// the city's history for the current season. Gateway errors propagate so
// the controller can distinguish a bad credential from other failures.
func (s *ClimateService) LiveCheck(ctx context.Context, city string, gateway WeatherGateway, now time.Time) (*LiveCheckResult, error) {
	history, err := s.Series(city)
	if err != nil {
		return nil, err
	}

	report, err := gateway.CurrentWeather(ctx, city)
	if err != nil {
		return nil, err
	}

	season, stats, status := LiveCheck(report.TemperatureC, history, now)
	return &LiveCheckResult{
		City:         city,
		TemperatureC: report.TemperatureC,
		Season:       season,
		SeasonMean:   stats.Mean,
		SeasonStdDev: stats.StdDev,
		Status:       status,
	}, nil
}

// CitySeries is one city's line on the comparison chart.
type CitySeries struct {
	City   string      `json:"city"`
	Points []TempPoint `json:"points"`
}

func (s *ClimateService) Compare(cities []string) ([]CitySeries, error) {
	out := make([]CitySeries, 0, len(cities))
	for _, city := range cities {
		points, err := s.Series(city)
		if err != nil {
			return nil, err
		}
		out = append(out, CitySeries{City: city, Points: points})
	}
	return out, nil
}

// YearOverlayPoint positions a reading by day-of-year so years stack on
// one axis.
type YearOverlayPoint struct {
	Year         int     `json:"year"`
	DayOfYear    int     `json:"day_of_year"`
	TemperatureC float64 `json:"temperature_c"`
}

func (s *ClimateService) YearOverlay(city string, years []int) ([]YearOverlayPoint, error) {
	points, err := s.Series(city)
	if err != nil {
		return nil, err
	}

	want := make(map[int]bool, len(years))
	for _, y := range years {
		want[y] = true
	}

	var out []YearOverlayPoint
	for _, p := range points {
		if len(want) > 0 && !want[p.Timestamp.Year()] {
			continue
		}
		out = append(out, YearOverlayPoint{
			Year:         p.Timestamp.Year(),
			DayOfYear:    p.Timestamp.YearDay(),
			TemperatureC: p.TemperatureC,
		})
	}
	return out, nil
}

// Years lists the calendar years present in a city's series.
func (s *ClimateService) Years(city string) ([]int, error) {
	points, err := s.Series(city)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var years []int
	for _, p := range points {
		if !seen[p.Timestamp.Year()] {
			seen[p.Timestamp.Year()] = true
			years = append(years, p.Timestamp.Year())
		}
	}
	sort.Ints(years)
	return years, nil
}

// MapMarker is one city's pin on the current-weather map.
type MapMarker struct {
	City         string  `json:"city"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	TemperatureC float64 `json:"temperature_c"`
}

// WeatherMap fetches current weather for every known city. Cities whose
// lookup fails are skipped; an empty result is reported as an error so a
// bad credential isn't mistaken for an empty dataset.
func (s *ClimateService) WeatherMap(ctx context.Context, gateway WeatherGateway) ([]MapMarker, error) {
	cities, err := s.Cities()
	if err != nil {
		return nil, err
	}

	var markers []MapMarker
	var lastErr error
	for _, city := range cities {
		report, err := gateway.CurrentWeather(ctx, city)
		if err != nil {
			lastErr = err
			continue
		}
		markers = append(markers, MapMarker{
			City:         city,
			Lat:          report.Lat,
			Lon:          report.Lon,
			TemperatureC: report.TemperatureC,
		})
	}
	if len(markers) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return markers, nil
}
