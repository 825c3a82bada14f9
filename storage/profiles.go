package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Weekdays in display order for schedules.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type DaySchedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Profile struct {
	Bio       string                 `json:"bio"`
	Timezone  string                 `json:"timezone"`
	ClockedIn bool                   `json:"clockedIn"`
	Schedule  map[string]DaySchedule `json:"schedule"`
}

// ProfileStore keeps one JSON file per user under dir. Profiles are
// created lazily with empty defaults on first read and fully rewritten
// on every edit.
type ProfileStore struct {
	mu  sync.Mutex
	dir string
}

func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: dir}
}

func (s *ProfileStore) path(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

// Get loads a user's profile, creating and persisting an empty one if
// none exists yet.
func (s *ProfileStore) Get(userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		p := &Profile{Schedule: make(map[string]DaySchedule)}
		if err := writeJSON(s.path(userID), p); err != nil {
			return nil, err
		}
		return p, nil
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.Schedule == nil {
		p.Schedule = make(map[string]DaySchedule)
	}
	return &p, nil
}

func (s *ProfileStore) Save(userID string, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path(userID), p)
}

// WeeklyHours sums end-start minute differences across the schedule and
// rounds to one decimal hour. It is derived on demand, never persisted.
func WeeklyHours(schedule map[string]DaySchedule) float64 {
	total := 0
	for _, day := range schedule {
		start, ok1 := parseClock(day.Start)
		end, ok2 := parseClock(day.End)
		if !ok1 || !ok2 {
			continue
		}
		total += end - start
	}
	return math.Round(float64(total)/60*10) / 10
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ValidClock reports whether s is a valid HH:MM time.
func ValidClock(s string) bool {
	_, ok := parseClock(s)
	return ok
}
