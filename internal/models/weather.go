package models

import "encoding/json"

// HourlyMetrics lists the Open-Meteo hourly variables requested by the weather proxy.
const HourlyMetrics = "temperature_2m,precipitation,cloudcover"

// WeatherQuery holds the parameters of a historic weather request.
type WeatherQuery struct {
	Latitude  float64
	Longitude float64
	PastDays  int
}

// WeatherForecast is the part of the upstream response the proxy relays.
// Hourly is kept as raw JSON so it is passed through unchanged.
type WeatherForecast struct {
	Hourly json.RawMessage `json:"hourly"`
}
