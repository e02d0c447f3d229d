package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hnky/agentcon-weather-mcp/internal/models"
	"github.com/hnky/agentcon-weather-mcp/internal/observability"
	"github.com/hnky/agentcon-weather-mcp/internal/validation"
)

// WeatherClient fetches weather data for a coordinate pair. Implementations
// must be safe for concurrent use; each call is independent.
type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, latitude, longitude float64) (models.CurrentWeather, error)
	GetForecast(ctx context.Context, latitude, longitude float64, days int) (models.ForecastResponse, error)
}

const (
	// DefaultBaseURL is the Open-Meteo forecast endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 10 * time.Second

	// DefaultForecastDays is used when a caller does not specify a day count.
	DefaultForecastDays = 7
)

// Retry budget for transient upstream failures. Not consumed yet: callAPI
// fails fast on the first error.
// TODO: consume maxRetries/retryBackoff in callAPI with exponential backoff.
const (
	maxRetries   = 3
	retryBackoff = 500 * time.Millisecond
)

var (
	// ErrUpstreamFailure indicates a non-2xx response from the forecast endpoint.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrAPIError indicates a 2xx response whose body carries an error envelope.
	ErrAPIError = errors.New("Open-Meteo API error")
)

// StatusError reports the HTTP status of a failed upstream call.
// It matches ErrUpstreamFailure under errors.Is.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from Open-Meteo", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamFailure }

// OpenMeteoClient calls the Open-Meteo forecast API. The zero value is not
// usable; construct with NewOpenMeteoClient. All state is read-only after
// construction, so a single instance serves concurrent callers.
type OpenMeteoClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewOpenMeteoClient returns a client for the given endpoint with a per-call
// timeout. An empty baseURL selects DefaultBaseURL; a non-positive timeout
// selects DefaultTimeout.
func NewOpenMeteoClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*OpenMeteoClient, error) {
	return NewOpenMeteoClientWithLimiter(baseURL, timeout, 0, 0, logger)
}

// NewOpenMeteoClientWithLimiter additionally caps upstream calls at rps
// requests per second with the given burst. rps <= 0 disables the limiter.
func NewOpenMeteoClientWithLimiter(baseURL string, timeout time.Duration, rps float64, burst int, logger *zap.Logger) (*OpenMeteoClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &OpenMeteoClient{
		baseURL: baseURL,
		timeout: timeout,
		limiter: limiter,
		logger:  logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// forecastResponse mirrors the JSON shape of the forecast endpoint. The error
// envelope and the current/daily blocks are mutually exclusive in practice,
// but all are optional in the decoder.
type forecastResponse struct {
	Error   bool   `json:"error"`
	Reason  string `json:"reason"`
	Current *struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily *struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		Precipitation  []float64 `json:"precipitation_sum"`
		WeatherCode    []int     `json:"weather_code"`
	} `json:"daily"`
}

// GetCurrentWeather fetches current conditions for the given coordinates.
// Coordinates are validated before any network call.
func (c *OpenMeteoClient) GetCurrentWeather(ctx context.Context, latitude, longitude float64) (models.CurrentWeather, error) {
	if err := validation.Coordinates(latitude, longitude); err != nil {
		return models.CurrentWeather{}, err
	}

	params := url.Values{}
	params.Set("latitude", formatCoord(latitude))
	params.Set("longitude", formatCoord(longitude))
	params.Set("current", "temperature_2m,wind_speed_10m,weather_code")
	params.Set("timezone", "UTC")

	data, err := c.callAPI(ctx, params)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.CurrentWeather{}, err
	}
	if data.Current == nil {
		err := fmt.Errorf("parse response: missing current block")
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.CurrentWeather{}, err
	}

	ts, err := parseObservationTime(data.Current.Time)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(ErrorCategoryParsing)).Inc()
		return models.CurrentWeather{}, fmt.Errorf("parse response: %w", err)
	}

	code := data.Current.WeatherCode
	return models.CurrentWeather{
		Temperature: data.Current.Temperature,
		WindSpeed:   data.Current.WindSpeed,
		WeatherCode: code,
		Conditions:  models.Conditions(code),
		Timestamp:   ts,
	}, nil
}

// GetForecast fetches a multi-day forecast for the given coordinates.
// days must be within [1, 16]; use DefaultForecastDays for the usual default.
// The returned forecasts preserve upstream (chronological) order.
func (c *OpenMeteoClient) GetForecast(ctx context.Context, latitude, longitude float64, days int) (models.ForecastResponse, error) {
	if err := validation.Coordinates(latitude, longitude); err != nil {
		return models.ForecastResponse{}, err
	}
	if err := validation.ForecastDays(days); err != nil {
		return models.ForecastResponse{}, err
	}

	params := url.Values{}
	params.Set("latitude", formatCoord(latitude))
	params.Set("longitude", formatCoord(longitude))
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	params.Set("timezone", "UTC")
	params.Set("forecast_days", strconv.Itoa(days))

	data, err := c.callAPI(ctx, params)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.ForecastResponse{}, err
	}
	daily := data.Daily
	if daily == nil {
		err := fmt.Errorf("parse response: missing daily block")
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.ForecastResponse{}, err
	}

	n := len(daily.Time)
	if len(daily.TemperatureMax) != n || len(daily.TemperatureMin) != n ||
		len(daily.Precipitation) != n || len(daily.WeatherCode) != n {
		err := fmt.Errorf("parse response: mismatched daily array lengths")
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(ErrorCategoryParsing)).Inc()
		return models.ForecastResponse{}, err
	}

	forecasts := make([]models.DailyForecast, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.Parse("2006-01-02", daily.Time[i])
		if err != nil {
			observability.WeatherAPIErrorsTotal.WithLabelValues(string(ErrorCategoryParsing)).Inc()
			return models.ForecastResponse{}, fmt.Errorf("parse response: %w", err)
		}
		code := daily.WeatherCode[i]
		forecasts = append(forecasts, models.DailyForecast{
			Date:           date,
			TemperatureMin: daily.TemperatureMin[i],
			TemperatureMax: daily.TemperatureMax[i],
			Precipitation:  daily.Precipitation[i],
			WeatherCode:    code,
			Conditions:     models.Conditions(code),
		})
	}

	return models.ForecastResponse{
		Location:  models.Coordinates{Latitude: latitude, Longitude: longitude},
		Forecasts: forecasts,
	}, nil
}

// callAPI performs one GET against the forecast endpoint and decodes the body.
// Non-2xx statuses map to *StatusError; a 2xx body with error=true maps to ErrAPIError.
func (c *OpenMeteoClient) callAPI(ctx context.Context, params url.Values) (*forecastResponse, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(reqCtx); err != nil {
			observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		observability.UpstreamThrottleWaitSeconds.Add(time.Since(waitStart).Seconds())
	}

	req, err := c.buildRequest(reqCtx, params)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if corrID := CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	c.logger.Debug("open-meteo request", zap.String("query", req.URL.RawQuery))

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var apiResp forecastResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if apiResp.Error {
		reason := apiResp.Reason
		if reason == "" {
			reason = "unknown"
		}
		return nil, fmt.Errorf("%w: %s", ErrAPIError, reason)
	}

	return &apiResp, nil
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// parseObservationTime parses the minute-resolution timestamps the current
// block uses, accepting second resolution as well. Values are UTC.
func parseObservationTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized observation time %q", s)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
