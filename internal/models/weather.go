package models

import "time"

// Coordinates is a latitude/longitude pair for a weather query.
// Range checks live in internal/validation; a constructed Coordinates is assumed valid.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CurrentWeather holds current conditions at a location. Timestamp is UTC.
type CurrentWeather struct {
	Temperature float64   `json:"temperature"` // °C
	WindSpeed   float64   `json:"windSpeed"`   // km/h
	WeatherCode int       `json:"weatherCode"`
	Conditions  string    `json:"conditions"`
	Timestamp   time.Time `json:"timestamp"`
}

// DailyForecast holds the forecast for a single calendar day.
type DailyForecast struct {
	Date           time.Time `json:"date"`
	TemperatureMin float64   `json:"temperatureMin"` // °C
	TemperatureMax float64   `json:"temperatureMax"` // °C
	Precipitation  float64   `json:"precipitation"`  // mm
	WeatherCode    int       `json:"weatherCode"`
	Conditions     string    `json:"conditions"`
}

// ForecastResponse is a multi-day forecast in upstream (chronological) order,
// one entry per requested day.
type ForecastResponse struct {
	Location  Coordinates     `json:"location"`
	Forecasts []DailyForecast `json:"forecasts"`
}
