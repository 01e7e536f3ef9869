package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/iishyfishyy/guestdist/internal/config"
)

const (
	HistoryFileName = "history.json"

	// MaxEntries is how many runs are kept; older ones are dropped first
	MaxEntries = 100
)

// Entry represents a single rank run
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	GuestIDs   []string  `json:"guest_ids"`
	Results    int       `json:"results"`
	DurationMS int64     `json:"duration_ms"`
}

// History manages rank run history
type History struct {
	Entries []Entry `json:"entries"`
}

// GetHistoryPath returns the path to the history file
func GetHistoryPath() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFileName), nil
}

// Load reads the history from disk
func Load() (*History, error) {
	historyPath, err := GetHistoryPath()
	if err != nil {
		return nil, err
	}

	// If history doesn't exist, return empty history
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		return &History{Entries: []Entry{}}, nil
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var hist History
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return &hist, nil
}

// Save writes the history to disk
func (h *History) Save() error {
	historyPath, err := GetHistoryPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(historyPath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(historyPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// AddEntry appends an entry, dropping the oldest past MaxEntries
func (h *History) AddEntry(entry Entry) {
	h.Entries = append(h.Entries, entry)
	if n := len(h.Entries); n > MaxEntries {
		h.Entries = append([]Entry(nil), h.Entries[n-MaxEntries:]...)
	}
}

// Last returns up to n of the most recent entries, newest first
func (h *History) Last(n int) []Entry {
	if n <= 0 || n > len(h.Entries) {
		n = len(h.Entries)
	}
	out := make([]Entry, 0, n)
	for i := len(h.Entries) - 1; i >= len(h.Entries)-n; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}

// NewEntry creates a new history entry
func NewEntry(source string, guestIDs []string, results int, took time.Duration) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Source:     source,
		GuestIDs:   guestIDs,
		Results:    results,
		DurationMS: took.Milliseconds(),
	}
}

// Record loads the history, appends entry and saves it
func Record(entry Entry) error {
	hist, err := Load()
	if err != nil {
		return err
	}
	hist.AddEntry(entry)
	return hist.Save()
}
