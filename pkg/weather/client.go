// Package weather retrieves daily weather from Open-Meteo: the 7-day
// forecast used to project the order plan, and the historical archive used
// to backfill the daily record feed.
//
// Open-Meteo is free and keyless. Raw responses are cached on disk, one
// fetch per day, so repeated pipeline runs within a day never hit the
// network. Retrieval happens before the forecasting core runs; the core
// itself never blocks on this package.
package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/zkovac/bunplan/pkg/demand"
)

const (
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	defaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"
	dailyFields        = "temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode"
)

// Day is one day of historical weather from the archive endpoint.
type Day struct {
	Date          time.Time
	Temperature   float64
	Precipitation float64
	Conditions    string
}

// Client fetches daily weather for a single location.
type Client struct {
	httpClient  *http.Client
	forecastURL string
	archiveURL  string
	latitude    float64
	longitude   float64
	timezone    string
	cacheDir    string
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURLs overrides the Open-Meteo endpoints, for tests.
func WithBaseURLs(forecastURL, archiveURL string) Option {
	return func(cl *Client) {
		cl.forecastURL = forecastURL
		cl.archiveURL = archiveURL
	}
}

// WithCacheDir enables the one-fetch-per-day disk cache.
func WithCacheDir(dir string) Option {
	return func(cl *Client) { cl.cacheDir = dir }
}

// NewClient creates a weather client for the given coordinates.
func NewClient(latitude, longitude float64, timezone string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		forecastURL: defaultForecastURL,
		archiveURL:  defaultArchiveURL,
		latitude:    latitude,
		longitude:   longitude,
		timezone:    timezone,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outlook fetches the 7-day daily forecast. Daily temperature is the
// midpoint of the forecast max and min, matching how the historical feed
// aggregates observations.
func (c *Client) Outlook(ctx context.Context) ([]demand.OutlookDay, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(c.latitude))
	params.Set("longitude", formatCoord(c.longitude))
	params.Set("daily", dailyFields)
	params.Set("timezone", c.timezone)
	params.Set("forecast_days", fmt.Sprintf("%d", demand.ForecastHorizonDays))

	cacheName := fmt.Sprintf("forecast_%s_%s_%s.json",
		formatCoord(c.latitude), formatCoord(c.longitude), time.Now().Format("2006-01-02"))

	body, err := c.fetch(ctx, c.forecastURL, params, cacheName)
	if err != nil {
		return nil, fmt.Errorf("fetch outlook: %w", err)
	}

	days, err := parseDaily(body)
	if err != nil {
		return nil, fmt.Errorf("parse outlook: %w", err)
	}

	out := make([]demand.OutlookDay, len(days))
	for i, d := range days {
		temp, precip := d.Temperature, d.Precipitation
		out[i] = demand.OutlookDay{
			Date:          d.Date,
			Temperature:   &temp,
			Precipitation: &precip,
			Conditions:    d.Conditions,
		}
	}
	return out, nil
}

// History fetches daily weather for a past date range from the archive
// endpoint. One call covers the whole range.
func (c *Client) History(ctx context.Context, start, end time.Time) ([]Day, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(c.latitude))
	params.Set("longitude", formatCoord(c.longitude))
	params.Set("daily", dailyFields)
	params.Set("timezone", c.timezone)
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))

	cacheName := fmt.Sprintf("archive_%s_%s_%s_%s.json",
		formatCoord(c.latitude), formatCoord(c.longitude),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	body, err := c.fetch(ctx, c.archiveURL, params, cacheName)
	if err != nil {
		return nil, fmt.Errorf("fetch weather history: %w", err)
	}

	days, err := parseDaily(body)
	if err != nil {
		return nil, fmt.Errorf("parse weather history: %w", err)
	}
	return days, nil
}

// fetch returns the raw response body, from the disk cache when present,
// retrying transient failures with exponential backoff otherwise.
func (c *Client) fetch(ctx context.Context, baseURL string, params url.Values, cacheName string) ([]byte, error) {
	if c.cacheDir != "" {
		if body, err := os.ReadFile(filepath.Join(c.cacheDir, cacheName)); err == nil {
			c.logger.Debug("weather loaded from cache", "file", cacheName)
			return body, nil
		}
	}

	reqURL := baseURL + "?" + params.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("open-meteo returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("open-meteo returned %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	if c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err == nil {
			if err := os.WriteFile(filepath.Join(c.cacheDir, cacheName), body, 0o644); err != nil {
				c.logger.Warn("failed to cache weather response", "file", cacheName, "error", err)
			}
		}
	}
	return body, nil
}

// parseDaily extracts the daily arrays from an Open-Meteo response.
func parseDaily(body []byte) ([]Day, error) {
	daily := gjson.GetBytes(body, "daily")
	if !daily.Exists() {
		return nil, fmt.Errorf("response has no daily block")
	}

	dates := daily.Get("time").Array()
	maxes := daily.Get("temperature_2m_max").Array()
	mins := daily.Get("temperature_2m_min").Array()
	precips := daily.Get("precipitation_sum").Array()
	codes := daily.Get("weathercode").Array()

	n := len(dates)
	if n == 0 {
		return nil, fmt.Errorf("response has no days")
	}
	if len(maxes) != n || len(mins) != n || len(precips) != n || len(codes) != n {
		return nil, fmt.Errorf("daily arrays have mismatched lengths")
	}

	days := make([]Day, n)
	for i := 0; i < n; i++ {
		date, err := time.Parse("2006-01-02", dates[i].String())
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", dates[i].String(), err)
		}
		days[i] = Day{
			Date:          date,
			Temperature:   math.Round((maxes[i].Float()+mins[i].Float())/2*10) / 10,
			Precipitation: precips[i].Float(),
			Conditions:    Condition(codes[i].Int()),
		}
	}
	return days, nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
