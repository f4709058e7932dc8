package facades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"go.uber.org/zap"
)

// DefaultWeatherURL is the Open-Meteo forecast endpoint.
const DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// maxLoggedBody caps how much of an upstream error body is written to the log.
const maxLoggedBody = 1024

var (
	// ErrWeatherUnavailable is returned when the upstream cannot be reached.
	ErrWeatherUnavailable = errors.New("weather API unavailable")
	// ErrWeatherDecode is returned when a 200 response is not valid JSON.
	ErrWeatherDecode = errors.New("failed to decode weather response")
)

// UpstreamStatusError reports a non-200 answer from the weather API.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("weather API responded with status %d", e.StatusCode)
}

// WeatherHTTPFacade fetches historic hourly weather from Open-Meteo over HTTP.
type WeatherHTTPFacade struct {
	client  *http.Client
	baseURL string
	log     *zap.SugaredLogger
}

// NewWeatherHTTPFacade creates a new facade. An empty baseURL means DefaultWeatherURL.
func NewWeatherHTTPFacade(client *http.Client, baseURL string, log *zap.SugaredLogger) *WeatherHTTPFacade {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &WeatherHTTPFacade{client: client, baseURL: baseURL, log: log}
}

// GetHourlyWeather issues a single GET and returns the "hourly" block of the response unchanged.
// There is no retry; any failure is returned to the caller.
func (f *WeatherHTTPFacade) GetHourlyWeather(ctx context.Context, q models.WeatherQuery) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("past_days", strconv.Itoa(q.PastDays))
	params.Set("hourly", models.HourlyMetrics)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		f.log.Errorw("failed to build weather request", "error", err)
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Errorw("request error during weather API call", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		f.log.Errorw("failed to fetch historic weather data",
			"status", resp.StatusCode,
			"response", string(body),
		)
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	var forecast models.WeatherForecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		f.log.Errorw("failed to decode weather response", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWeatherDecode, err)
	}

	if len(forecast.Hourly) == 0 {
		return json.RawMessage(`{}`), nil
	}

	return forecast.Hourly, nil
}
