package calendar

import (
	"context"
	"os"
	"strings"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

const fileConfidence = 0.5

// FileTier scans a flat calendar export (an .ics file) when one exists.
// Absence of the file is a normal, silent "no data" outcome.
type FileTier struct {
	path string
}

func NewFileTier(path string) *FileTier {
	return &FileTier{path: path}
}

func (t *FileTier) Name() string { return "file" }

func (t *FileTier) Available() bool { return t.path != "" }

func (t *FileTier) TryAcquire(ctx context.Context, w Window) ([]models.Event, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := DecodeCalendar(strings.NewReader(string(data)), w)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Source = models.SourceFile
		events[i].Confidence = fileConfidence
	}
	return stampFallbackIDs(events, "file"), nil
}
