package facades

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sbilibin2017/gw-weather-auth/internal/logger"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var query = models.WeatherQuery{Latitude: 52.52, Longitude: 13.41, PastDays: 3}

func TestGetHourlyWeather_RelaysHourly(t *testing.T) {
	hourly := `{"time":["2026-10-15T00:00","2026-10-15T01:00"],"temperature_2m":[9.4,9.1],"precipitation":[0,0.1],"cloudcover":[100,87]}`

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "52.52", q.Get("latitude"))
		assert.Equal(t, "13.41", q.Get("longitude"))
		assert.Equal(t, "3", q.Get("past_days"))
		assert.Equal(t, "temperature_2m,precipitation,cloudcover", q.Get("hourly"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude":52.52,"longitude":13.41,"hourly_units":{"temperature_2m":"°C"},"hourly":` + hourly + `}`))
	}))
	defer upstream.Close()

	facade := NewWeatherHTTPFacade(upstream.Client(), upstream.URL, logger.NewNop())

	got, err := facade.GetHourlyWeather(context.Background(), query)
	require.NoError(t, err)
	assert.JSONEq(t, hourly, string(got))
}

func TestGetHourlyWeather_MissingHourly(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude":52.52}`))
	}))
	defer upstream.Close()

	facade := NewWeatherHTTPFacade(upstream.Client(), upstream.URL, logger.NewNop())

	got, err := facade.GetHourlyWeather(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{}`), got)
}

func TestGetHourlyWeather_UpstreamStatus(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadRequest, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":true,"reason":"boom"}`))
			}))
			defer upstream.Close()

			facade := NewWeatherHTTPFacade(upstream.Client(), upstream.URL, logger.NewNop())

			got, err := facade.GetHourlyWeather(context.Background(), query)
			assert.Nil(t, got)

			var statusErr *UpstreamStatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, status, statusErr.StatusCode)
		})
	}
}

func TestGetHourlyWeather_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	facade := NewWeatherHTTPFacade(http.DefaultClient, url, logger.NewNop())

	got, err := facade.GetHourlyWeather(context.Background(), query)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrWeatherUnavailable)
}

func TestGetHourlyWeather_InvalidJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer upstream.Close()

	facade := NewWeatherHTTPFacade(upstream.Client(), upstream.URL, logger.NewNop())

	got, err := facade.GetHourlyWeather(context.Background(), query)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrWeatherDecode)
}

func TestNewWeatherHTTPFacade_DefaultURL(t *testing.T) {
	facade := NewWeatherHTTPFacade(http.DefaultClient, "", logger.NewNop())
	assert.Equal(t, DefaultWeatherURL, facade.baseURL)
}
