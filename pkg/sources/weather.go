// Package sources holds the simple request/response data collaborators:
// weather, tasks, and local system signals. Failures never propagate;
// each fetch degrades to a well-known placeholder value.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// WeatherSource fetches current conditions from a wttr.in-style JSON
// endpoint.
type WeatherSource struct {
	url        string
	httpClient *http.Client
}

func NewWeatherSource(cfg models.WeatherConfig) *WeatherSource {
	return &WeatherSource{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

// wttrResponse mirrors the slice of the wttr.in j1 payload we consume.
type wttrResponse struct {
	CurrentCondition []struct {
		TempF       string `json:"temp_F"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// Fetch returns current weather, or the placeholder values on any
// failure.
func (s *WeatherSource) Fetch(ctx context.Context) models.Weather {
	w, err := s.fetch(ctx)
	if err != nil {
		log.WithError(err).Warn("weather fetch failed, using placeholders")
		return models.PlaceholderWeather()
	}
	return w
}

func (s *WeatherSource) fetch(ctx context.Context) (models.Weather, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return models.Weather{}, fmt.Errorf("creating weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.Weather{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Weather{}, fmt.Errorf("weather endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Weather{}, fmt.Errorf("reading weather response: %w", err)
	}

	var parsed wttrResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return models.Weather{}, fmt.Errorf("decoding weather response: %w", err)
	}
	if len(parsed.CurrentCondition) == 0 {
		return models.Weather{}, fmt.Errorf("weather response had no current condition")
	}

	current := parsed.CurrentCondition[0]
	weather := models.Weather{Temp: current.TempF + "°F"}
	if len(current.WeatherDesc) > 0 {
		weather.Condition = current.WeatherDesc[0].Value
		weather.Description = current.WeatherDesc[0].Value
	}
	return weather, nil
}
