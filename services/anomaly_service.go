package services

import (
	"math"
	"time"
)

// Season is one of the four calendar-month buckets used for grouping.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf maps a calendar month onto its season (Dec–Feb winter,
// Mar–May spring, Jun–Aug summer, Sep–Nov autumn).
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// TempPoint is one reading of a city's historical series.
type TempPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
	Season       Season    `json:"season"`
}

// SeasonStats holds the per-season aggregates anomaly checks run against.
type SeasonStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample standard deviation; 0 when Count < 2
}

// AnomalyStatus classifies one reading against its season's band.
type AnomalyStatus string

const (
	StatusNormal AnomalyStatus = "normal"
	StatusAnomal AnomalyStatus = "anomalous"
	// StatusUnknown means the season has fewer than two historical
	// points, so no standard deviation exists to test against.
	StatusUnknown AnomalyStatus = "insufficient_data"
)

// SeasonalStats groups the series by season and computes mean plus
// sample standard deviation per bucket.
func SeasonalStats(points []TempPoint) map[Season]SeasonStats {
	sums := make(map[Season]float64)
	counts := make(map[Season]int)
	for _, p := range points {
		sums[p.Season] += p.TemperatureC
		counts[p.Season]++
	}

	stats := make(map[Season]SeasonStats, len(counts))
	for season, n := range counts {
		mean := sums[season] / float64(n)
		var sq float64
		for _, p := range points {
			if p.Season == season {
				d := p.TemperatureC - mean
				sq += d * d
			}
		}
		s := SeasonStats{Count: n, Mean: mean}
		if n >= 2 {
			s.StdDev = math.Sqrt(sq / float64(n-1))
		}
		stats[season] = s
	}
	return stats
}

// Classify applies the two-sided 2-sigma rule for one reading against
// precomputed season statistics.
func Classify(value float64, stats SeasonStats) AnomalyStatus {
	if stats.Count < 2 {
		return StatusUnknown
	}
	band := 2 * stats.StdDev
	if value > stats.Mean+band || value < stats.Mean-band {
		return StatusAnomal
	}
	return StatusNormal
}

// FlaggedPoint pairs a reading with its classification.
type FlaggedPoint struct {
	TempPoint
	Status AnomalyStatus `json:"status"`
}

// DetectAnomalies classifies every point of a series against its own
// season's statistics.
func DetectAnomalies(points []TempPoint) []FlaggedPoint {
	stats := SeasonalStats(points)
	out := make([]FlaggedPoint, len(points))
	for i, p := range points {
		out[i] = FlaggedPoint{TempPoint: p, Status: Classify(p.TemperatureC, stats[p.Season])}
	}
	return out
}

// LiveCheck classifies a single fresh reading against the history of the
// season the clock currently falls in.
func LiveCheck(current float64, history []TempPoint, now time.Time) (Season, SeasonStats, AnomalyStatus) {
	season := SeasonOf(now.Month())
	stats := SeasonalStats(history)[season]
	return season, stats, Classify(current, stats)
}

// RollingMean computes a trailing moving average. Positions with fewer
// than window preceding points average everything available so far, so
// the head of the output is always defined.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}
