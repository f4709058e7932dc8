package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sbilibin2017/gw-weather-auth/internal/facades"
	"github.com/sbilibin2017/gw-weather-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"go.uber.org/zap"
)

// WeatherReader fetches hourly historic weather.
type WeatherReader interface {
	GetHourlyWeather(ctx context.Context, q models.WeatherQuery) (json.RawMessage, error)
}

// NewHistoricWeatherHandler returns an HTTP handler proxying historic weather requests.
// @Summary Historic weather
// @Description Returns the hourly temperature, precipitation and cloud cover block from Open-Meteo
// @Tags weather
// @Produce json
// @Param latitude query number true "Location latitude"
// @Param longitude query number true "Location longitude"
// @Param days query integer true "Number of days in the past"
// @Success 200 {object} object "Hourly weather data"
// @Failure 400 {object} models.ErrorResponse "Invalid parameters or upstream error"
// @Failure 503 {object} models.ErrorResponse "Weather API unreachable"
// @Router /auth/historic_weather [get]
func NewHistoricWeatherHandler(reader WeatherReader, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseWeatherQuery(r.URL.Query())
		if err != nil {
			log.Errorw("invalid weather request", "err", err, "request_id", middlewares.RequestIDFromContext(r.Context()))
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hourly, err := reader.GetHourlyWeather(r.Context(), q)
		if err != nil {
			var statusErr *facades.UpstreamStatusError
			switch {
			case errors.As(err, &statusErr):
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Failed to fetch historic weather data: upstream status %d", statusErr.StatusCode))
			case errors.Is(err, facades.ErrWeatherUnavailable):
				writeError(w, http.StatusServiceUnavailable, "Failed to connect to weather API")
			default:
				log.Errorw("error retrieving historic weather data", "err", err, "request_id", middlewares.RequestIDFromContext(r.Context()))
				writeError(w, http.StatusBadRequest, "Failed to fetch historic weather data")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(hourly)
	}
}

func parseWeatherQuery(values url.Values) (models.WeatherQuery, error) {
	var q models.WeatherQuery

	lat, err := parseFloatParam(values, "latitude")
	if err != nil {
		return q, err
	}
	lon, err := parseFloatParam(values, "longitude")
	if err != nil {
		return q, err
	}

	raw := values.Get("days")
	if raw == "" {
		return q, errors.New("days is required")
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return q, errors.New("days must be an integer")
	}

	q.Latitude, q.Longitude, q.PastDays = lat, lon, days
	return q, nil
}

func parseFloatParam(values url.Values, name string) (float64, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}
