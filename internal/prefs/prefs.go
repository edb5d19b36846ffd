package prefs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cribeiro84/prhub/internal/store"
)

// Key is the storage key holding the serialized preferences.
const Key = "PullRequestHub.Settings"

const (
	defaultHistoricalLimit = 50
	maxHistoricalLimit     = 1000
)

// SortDirection orders pull requests by creation date.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// ParseSortDirection validates a direction string, applying a fallback when empty.
func ParseSortDirection(value string, fallback SortDirection) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		if IsValidSortDirection(fallback) {
			return fallback, nil
		}
		return SortDescending, nil
	case "asc", string(SortAscending):
		return SortAscending, nil
	case "desc", string(SortDescending):
		return SortDescending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (valid: asc, desc)", value)
	}
}

// IsValidSortDirection returns true when the direction is recognized.
func IsValidSortDirection(d SortDirection) bool {
	return d == SortAscending || d == SortDescending
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAscending {
		return SortDescending
	}
	return SortAscending
}

// Preferences holds the persisted user settings.
type Preferences struct {
	DefaultFilterVisible bool          `json:"defaultFilterVisible"`
	OpenInNewWindow      bool          `json:"openInNewWindow"`
	HistoricalLimit      int           `json:"historicalLimit"`
	SortDirection        SortDirection `json:"sortDirection"`
	SelectedProjects     []string      `json:"selectedProjects,omitempty"`
}

// Default returns the default preferences.
func Default() *Preferences {
	return &Preferences{
		DefaultFilterVisible: false,
		OpenInNewWindow:      true,
		HistoricalLimit:      defaultHistoricalLimit,
		SortDirection:        SortDescending,
	}
}

// Load reads preferences from st. Any failure, including a missing key or
// malformed JSON, yields the defaults.
func Load(st store.Store) *Preferences {
	p := Default()
	if st == nil {
		return p
	}

	data, ok, err := st.Get(Key)
	if err != nil || !ok {
		return p
	}

	loaded := *Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return p
	}

	// Fields missing from the stored document keep their defaults.
	p.DefaultFilterVisible = loaded.DefaultFilterVisible
	p.OpenInNewWindow = loaded.OpenInNewWindow
	if loaded.HistoricalLimit > 0 {
		p.HistoricalLimit = clampLimit(loaded.HistoricalLimit)
	}
	if IsValidSortDirection(loaded.SortDirection) {
		p.SortDirection = loaded.SortDirection
	}
	p.SelectedProjects = cleanProjects(loaded.SelectedProjects)
	return p
}

// Save writes preferences to st.
func Save(st store.Store, p *Preferences) error {
	if st == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := st.Set(Key, data); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Reset removes stored preferences so the next Load yields defaults.
func Reset(st store.Store) error {
	if st == nil {
		return nil
	}
	return st.Delete(Key)
}

// Fields lists the keys accepted by Set.
func Fields() []string {
	return []string{"default_filter_visible", "open_in_new_window", "historical_limit", "sort_direction", "projects"}
}

// Set updates one preference from its string form.
func (p *Preferences) Set(field, value string) error {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "default_filter_visible":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("default_filter_visible: %w", err)
		}
		p.DefaultFilterVisible = b
	case "open_in_new_window":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("open_in_new_window: %w", err)
		}
		p.OpenInNewWindow = b
	case "historical_limit":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return fmt.Errorf("historical_limit must be a positive integer")
		}
		p.HistoricalLimit = clampLimit(n)
	case "sort_direction":
		d, err := ParseSortDirection(value, p.SortDirection)
		if err != nil {
			return err
		}
		p.SortDirection = d
	case "projects":
		p.SelectedProjects = cleanProjects(strings.Split(value, ","))
	default:
		return fmt.Errorf("unknown preference %q (valid: %s)", field, strings.Join(Fields(), ", "))
	}
	return nil
}

func clampLimit(n int) int {
	if n > maxHistoricalLimit {
		return maxHistoricalLimit
	}
	return n
}

func cleanProjects(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
