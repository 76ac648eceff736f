package calendar

import (
	"testing"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

func TestShouldExclude(t *testing.T) {
	f := NewFilter(models.CalendarConfig{})

	tests := []struct {
		title       string
		description string
		want        bool
	}{
		{"Independence Day Holiday", "", true},
		{"HOLIDAY: office closed", "", true},
		{"Mom's birthday", "", true},
		{"Wedding Anniversary", "", true},
		{"Planning", "reminder: company holiday next week", true},
		{"Team Sync", "", false},
		{"Birthdayparty venue scouting", "", false}, // no word boundary
		{"Holidays planning meeting", "", true},
	}
	for _, tt := range tests {
		ev := models.Event{Title: tt.title, Description: tt.description}
		if got := f.ShouldExclude(ev); got != tt.want {
			t.Errorf("ShouldExclude(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
		}
	}
}

func TestShouldExcludeConfiguredPattern(t *testing.T) {
	f := NewFilter(models.CalendarConfig{SuppressPatterns: []string{"namedays"}})

	if !f.ShouldExclude(models.Event{Title: "Namedays in Hungary"}) {
		t.Error("configured pattern should exclude")
	}
	if !f.ShouldExclude(models.Event{Title: "Office Holiday"}) {
		t.Error("defaults should still apply alongside configured patterns")
	}
}

func TestCategorize(t *testing.T) {
	f := NewFilter(models.CalendarConfig{})

	tests := []struct {
		title string
		want  models.Category
	}{
		{"Sprint planning", models.CategoryWork},
		{"Dentist appointment", models.CategoryPersonal},
		{"Pick up package", models.CategoryGeneral},
		// Work outranks personal when both match.
		{"Client dinner", models.CategoryWork},
	}
	for _, tt := range tests {
		got := f.Categorize(models.Event{Title: tt.title})
		if got != tt.want {
			t.Errorf("Categorize(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
