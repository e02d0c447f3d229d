// Package tools exposes the weather queries as MCP tools. Handlers are the
// sole error-recovery boundary: every failure is converted to a string
// beginning with "Error: " because tool callers expect textual output, never
// a protocol fault.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localrivet/gomcp/server"
	"go.uber.org/zap"

	"github.com/hnky/agentcon-weather-mcp/internal/client"
	"github.com/hnky/agentcon-weather-mcp/internal/observability"
	"github.com/hnky/agentcon-weather-mcp/internal/validation"
)

// CurrentWeatherArgs are the inputs for the get_current_weather tool.
type CurrentWeatherArgs struct {
	Latitude  float64 `json:"latitude" description:"Latitude coordinate (-90 to 90)" required:"true"`
	Longitude float64 `json:"longitude" description:"Longitude coordinate (-180 to 180)" required:"true"`
}

// ForecastArgs are the inputs for the get_forecast tool.
type ForecastArgs struct {
	Latitude  float64 `json:"latitude" description:"Latitude coordinate (-90 to 90)" required:"true"`
	Longitude float64 `json:"longitude" description:"Longitude coordinate (-180 to 180)" required:"true"`
	Days      int     `json:"days" description:"Number of forecast days (1-16, default 7)"`
}

// Handler holds the dependencies shared by the tool handlers. Constructed once
// at startup and passed to Register; no mutable state.
type Handler struct {
	client client.WeatherClient
	logger *zap.Logger
}

// NewHandler returns a Handler backed by the given weather client.
func NewHandler(c client.WeatherClient, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: c, logger: logger}
}

// Register registers both weather tools on the MCP server.
func (h *Handler) Register(srv server.Server) {
	srv.Tool("get_current_weather", "Get current weather conditions for a location.", h.GetCurrentWeather)
	srv.Tool("get_forecast", "Get weather forecast for a location.", h.GetForecast)
}

// GetCurrentWeather handles the get_current_weather tool.
func (h *Handler) GetCurrentWeather(_ *server.Context, args CurrentWeatherArgs) (string, error) {
	start := time.Now()
	corrID := uuid.NewString()
	logger := h.logger.With(
		zap.String("tool", "get_current_weather"),
		zap.String("correlation_id", corrID),
	)
	logger.Info("tool invoked",
		zap.Float64("latitude", args.Latitude),
		zap.Float64("longitude", args.Longitude),
	)

	ctx := client.WithCorrelationID(context.Background(), corrID)
	weather, err := h.client.GetCurrentWeather(ctx, args.Latitude, args.Longitude)
	if err != nil {
		return h.errorText("get_current_weather", logger, err, start, "Failed to fetch weather data"), nil
	}

	observability.RecordToolInvocation("get_current_weather", "success", time.Since(start).Seconds())
	return fmt.Sprintf(
		"Current weather at (%s, %s):\n"+
			"  Temperature: %s°C\n"+
			"  Wind Speed: %s km/h\n"+
			"  Conditions: %s (WMO code %d)\n"+
			"  Observed at: %s",
		num(args.Latitude), num(args.Longitude),
		num(weather.Temperature),
		num(weather.WindSpeed),
		weather.Conditions, weather.WeatherCode,
		timestamp(weather.Timestamp),
	), nil
}

// GetForecast handles the get_forecast tool. A missing or zero days argument
// falls back to the 7-day default before validation.
func (h *Handler) GetForecast(_ *server.Context, args ForecastArgs) (string, error) {
	start := time.Now()
	corrID := uuid.NewString()
	logger := h.logger.With(
		zap.String("tool", "get_forecast"),
		zap.String("correlation_id", corrID),
	)

	days := args.Days
	if days == 0 {
		days = client.DefaultForecastDays
	}
	logger.Info("tool invoked",
		zap.Float64("latitude", args.Latitude),
		zap.Float64("longitude", args.Longitude),
		zap.Int("days", days),
	)

	ctx := client.WithCorrelationID(context.Background(), corrID)
	forecast, err := h.client.GetForecast(ctx, args.Latitude, args.Longitude, days)
	if err != nil {
		return h.errorText("get_forecast", logger, err, start, "Failed to fetch forecast"), nil
	}

	lines := []string{fmt.Sprintf("Weather forecast for (%s, %s) – %d day(s):\n",
		num(args.Latitude), num(args.Longitude), days)}
	for _, day := range forecast.Forecasts {
		lines = append(lines, fmt.Sprintf("  %s: %s (WMO %d), %s°C – %s°C, Precipitation: %s mm",
			day.Date.Format("2006-01-02"),
			day.Conditions, day.WeatherCode,
			num(day.TemperatureMin), num(day.TemperatureMax),
			num(day.Precipitation),
		))
	}

	observability.RecordToolInvocation("get_forecast", "success", time.Since(start).Seconds())
	return strings.Join(lines, "\n"), nil
}

// errorText converts a client error into the caller-facing "Error: ..." string
// and records logs and metrics for the failed invocation.
func (h *Handler) errorText(tool string, logger *zap.Logger, err error, start time.Time, fetchMsg string) string {
	seconds := time.Since(start).Seconds()

	if validation.IsInvalidInput(err) {
		logger.Warn("validation error", zap.Error(err))
		observability.RecordToolInvocation(tool, "invalid_input", seconds)
		return "Error: " + err.Error()
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		logger.Error("upstream http error", zap.Int("status", statusErr.StatusCode), zap.Error(err))
		observability.RecordToolInvocation(tool, "upstream_error", seconds)
		return fmt.Sprintf("Error: %s – %d", fetchMsg, statusErr.StatusCode)
	}

	logger.Error("unexpected error", zap.Error(err))
	observability.RecordToolInvocation(tool, "error", seconds)
	return fmt.Sprintf("Error: An unexpected error occurred – %s", err.Error())
}

// num renders a float with a trailing ".0" for integral values, so 8 reads
// as "8.0" in tool output.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// timestamp renders a UTC observation time as 2006-01-02T15:04:05+00:00.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "+00:00"
}
