package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// AvgTempFallbackC substitutes for the live temperature when the city is
// unset or the weather lookup fails mid-workout.
const AvgTempFallbackC = 5.0

// ErrInvalidAPIKey marks a 401 from the weather API so the dashboard can
// tell a bad credential apart from a generic failure.
var ErrInvalidAPIKey = errors.New("invalid weather API key")

// WeatherReport is the slice of the OpenWeatherMap response we use.
type WeatherReport struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature_c"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

// WeatherGateway is what the conversation engine and dashboard depend
// on; tests substitute fakes.
type WeatherGateway interface {
	CurrentWeather(ctx context.Context, city string) (*WeatherReport, error)
}

type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewWeatherService() *WeatherService {
	return &WeatherService{
		apiKey:  os.Getenv("OPENWEATHER_API_KEY"),
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		client:  &http.Client{Timeout: 8 * time.Second},
	}
}

// NewWeatherServiceWithKey is used by the dashboard live check, where the
// caller supplies the credential per request.
func NewWeatherServiceWithKey(apiKey string) *WeatherService {
	s := NewWeatherService()
	s.apiKey = apiKey
	return s
}

type openWeatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Name string `json:"name"`
}

func (s *WeatherService) CurrentWeather(ctx context.Context, city string) (*WeatherReport, error) {
	u := fmt.Sprintf("%s?q=%s&appid=%s&units=metric",
		s.baseURL, url.QueryEscape(city), s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call weather API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidAPIKey
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var wr openWeatherResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("failed to parse weather JSON: %w", err)
	}

	return &WeatherReport{
		City:         wr.Name,
		TemperatureC: wr.Main.Temp,
		Lat:          wr.Coord.Lat,
		Lon:          wr.Coord.Lon,
	}, nil
}
