package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProfileLazyCreate(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileStore(dir)

	p, err := store.Get("12345")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Bio != "" || p.ClockedIn || len(p.Schedule) != 0 {
		t.Errorf("new profile not empty: %+v", p)
	}

	// The empty profile must be persisted immediately.
	if _, err := os.Stat(filepath.Join(dir, "12345.json")); err != nil {
		t.Errorf("profile file not created: %v", err)
	}
}

func TestProfileSaveRoundTrip(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	p, err := store.Get("u1")
	if err != nil {
		t.Fatal(err)
	}
	p.Bio = "night shift"
	p.Timezone = "UTC+2"
	p.ClockedIn = true
	p.Schedule["monday"] = DaySchedule{Start: "09:00", End: "17:00"}

	if err := store.Save("u1", p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Bio != "night shift" || got.Timezone != "UTC+2" || !got.ClockedIn {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Schedule["monday"] != (DaySchedule{Start: "09:00", End: "17:00"}) {
		t.Errorf("schedule lost: %+v", got.Schedule)
	}
}

func TestWeeklyHours(t *testing.T) {
	tests := []struct {
		name     string
		schedule map[string]DaySchedule
		want     float64
	}{
		{"empty", map[string]DaySchedule{}, 0},
		{
			"one full day",
			map[string]DaySchedule{"monday": {Start: "09:00", End: "17:00"}},
			8.0,
		},
		{
			"half hours round to one decimal",
			map[string]DaySchedule{
				"monday":  {Start: "09:00", End: "12:30"},
				"tuesday": {Start: "13:15", End: "17:00"},
			},
			7.3,
		},
		{
			"invalid entries skipped",
			map[string]DaySchedule{
				"monday":  {Start: "09:00", End: "17:00"},
				"tuesday": {Start: "nine", End: "17:00"},
			},
			8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyHours(tt.schedule); got != tt.want {
				t.Errorf("WeeklyHours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidClock(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"09:00", true},
		{"23:59", true},
		{"0:5", true},
		{"24:00", false},
		{"12:60", false},
		{"12", false},
		{"", false},
		{"ab:cd", false},
	}

	for _, tt := range tests {
		if got := ValidClock(tt.in); got != tt.want {
			t.Errorf("ValidClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
