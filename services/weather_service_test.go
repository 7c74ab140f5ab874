package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherServiceFor(srv *httptest.Server) *WeatherService {
	s := NewWeatherServiceWithKey("test-key")
	s.baseURL = srv.URL
	return s
}

func TestCurrentWeatherParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Moscow", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{"main":{"temp":-7.3},"coord":{"lat":55.75,"lon":37.62},"name":"Moscow"}`))
	}))
	defer srv.Close()

	report, err := weatherServiceFor(srv).CurrentWeather(context.Background(), "Moscow")

	require.NoError(t, err)
	assert.Equal(t, "Moscow", report.City)
	assert.InDelta(t, -7.3, report.TemperatureC, 1e-9)
	assert.InDelta(t, 55.75, report.Lat, 1e-9)
	assert.InDelta(t, 37.62, report.Lon, 1e-9)
}

func TestCurrentWeatherInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := weatherServiceFor(srv).CurrentWeather(context.Background(), "Moscow")

	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestCurrentWeatherServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := weatherServiceFor(srv).CurrentWeather(context.Background(), "Moscow")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAPIKey)
}
