package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func julyPoint(day int, temp float64) TempPoint {
	return TempPoint{
		Timestamp:    time.Date(2024, time.July, day, 12, 0, 0, 0, time.UTC),
		TemperatureC: temp,
		Season:       SeasonSummer,
	}
}

func TestDescribe(t *testing.T) {
	points := []TempPoint{
		julyPoint(1, 10),
		julyPoint(2, 20),
		julyPoint(3, 30),
		julyPoint(4, 40),
		julyPoint(5, 50),
	}

	stats := Describe(points)

	assert.Equal(t, 5, stats.Count)
	assert.InDelta(t, 30.0, stats.Mean, 1e-9)
	assert.InDelta(t, 15.8114, stats.Std, 1e-4)
	assert.InDelta(t, 10.0, stats.Min, 1e-9)
	assert.InDelta(t, 20.0, stats.P25, 1e-9)
	assert.InDelta(t, 30.0, stats.Median, 1e-9)
	assert.InDelta(t, 40.0, stats.P75, 1e-9)
	assert.InDelta(t, 50.0, stats.Max, 1e-9)
}

func TestDescribeInterpolatesQuantiles(t *testing.T) {
	points := []TempPoint{
		julyPoint(1, 10),
		julyPoint(2, 20),
		julyPoint(3, 30),
		julyPoint(4, 40),
	}

	stats := Describe(points)

	// positions fall between order statistics
	assert.InDelta(t, 17.5, stats.P25, 1e-9)
	assert.InDelta(t, 25.0, stats.Median, 1e-9)
	assert.InDelta(t, 32.5, stats.P75, 1e-9)
}

func TestDescribeDegenerateInputs(t *testing.T) {
	assert.Equal(t, DescriptiveStats{}, Describe(nil))

	single := Describe([]TempPoint{julyPoint(1, 21.5)})
	assert.Equal(t, 1, single.Count)
	assert.InDelta(t, 21.5, single.Mean, 1e-9)
	assert.Zero(t, single.Std)
	assert.InDelta(t, 21.5, single.Median, 1e-9)
}

func TestSmoothSeriesCarriesRollingMean(t *testing.T) {
	points := []TempPoint{
		julyPoint(1, 10),
		julyPoint(2, 20),
		julyPoint(3, 30),
	}

	smoothed := SmoothSeries(points)

	require.Len(t, smoothed, 3)
	// short series: every trailing window is partial
	assert.InDelta(t, 10.0, smoothed[0].RollingMean, 1e-9)
	assert.InDelta(t, 15.0, smoothed[1].RollingMean, 1e-9)
	assert.InDelta(t, 20.0, smoothed[2].RollingMean, 1e-9)
	assert.Equal(t, points[2].Timestamp, smoothed[2].Timestamp)
	assert.InDelta(t, 30.0, smoothed[2].TemperatureC, 1e-9)
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-07-01T12:30:00Z", time.Date(2024, time.July, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-07-01 12:30:00", time.Date(2024, time.July, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-07-01", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		ts, err := parseTimestamp(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.True(t, ts.Equal(tc.want), "parsed %q as %v", tc.raw, ts)
	}

	_, err := parseTimestamp("01.07.2024")
	assert.Error(t, err)
}
