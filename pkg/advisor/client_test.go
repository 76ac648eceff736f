package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

func clientFor(url string) *Client {
	return &Client{
		endpoint:   url,
		model:      "test-model",
		apiKey:     "key",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGenerateReturnsFirstLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		w.Write([]byte(`{"content": [{"text": "  Standup in 5m \nignored second line"}]}`))
	}))
	defer srv.Close()

	line, err := clientFor(srv.URL).Generate(context.Background(), CallPrioritization, "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if line != "Standup in 5m" {
		t.Errorf("line = %q, want trimmed first line", line)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"empty content", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content": []}`))
		}},
		{"blank text", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content": [{"text": "   "}]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if _, err := clientFor(srv.URL).Generate(context.Background(), CallInsight, "p"); err == nil {
				t.Error("Generate accepted a bad response")
			}
		})
	}
}

func TestNewClientNilWithoutKey(t *testing.T) {
	cfg := models.DefaultConfig().Advisor
	cfg.APIKeyEnv = "GLANCE_TEST_MISSING_KEY"

	if c := NewClient(cfg); c != nil {
		t.Error("NewClient should be nil without an API key")
	}

	t.Setenv("GLANCE_TEST_MISSING_KEY", "k")
	cfg.Enabled = false
	if c := NewClient(cfg); c != nil {
		t.Error("NewClient should be nil when disabled")
	}
}
