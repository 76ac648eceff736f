package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// TaskSource fetches open to-dos from a Todoist-style REST endpoint. The
// order the service returns is preserved; the pipeline never re-ranks
// tasks inside a priority band.
type TaskSource struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewTaskSource(cfg models.TasksConfig) *TaskSource {
	return &TaskSource{
		url:   cfg.URL,
		token: os.Getenv(cfg.APITokenEnv),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

type todoistTask struct {
	Content  string `json:"content"`
	Priority int    `json:"priority"` // 4 = urgent ... 1 = normal
	Due      *struct {
		Date string `json:"date"`
	} `json:"due"`
}

// Fetch returns the normalized task list, or an empty list on any
// failure (including no token configured).
func (s *TaskSource) Fetch(ctx context.Context) []models.Task {
	if s.token == "" {
		return nil
	}
	tasks, err := s.fetch(ctx)
	if err != nil {
		log.WithError(err).Warn("task fetch failed, using empty list")
		return nil
	}
	return tasks
}

func (s *TaskSource) fetch(ctx context.Context) ([]models.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("task request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading task response: %w", err)
	}

	var raw []todoistTask
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding task response: %w", err)
	}

	tasks := make([]models.Task, 0, len(raw))
	for _, t := range raw {
		if t.Content == "" {
			continue
		}
		task := models.Task{Title: t.Content, Priority: mapPriority(t.Priority)}
		if t.Due != nil {
			task.Due = t.Due.Date
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func mapPriority(p int) models.TaskPriority {
	switch p {
	case 4:
		return models.PriorityHigh
	case 3:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
