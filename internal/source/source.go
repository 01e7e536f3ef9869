package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/iishyfishyy/guestdist/internal/config"
)

// Sink receives the data a Source loads
type Sink interface {
	// InsertScore stores one guest score for a thematic
	InsertScore(guestID, thematicID string, score float64)

	// InsertThematicIDs registers thematics
	InsertThematicIDs(ids []string)

	// InsertOtherGuestIDs registers the guests matches are drawn from
	InsertOtherGuestIDs(ids []string)
}

// Source loads scores and registries from somewhere outside the process
type Source interface {
	// Load pushes everything the source holds into sink
	Load(ctx context.Context, sink Sink) error

	// Name identifies the source in logs and history
	Name() string

	// Close releases the source
	Close() error
}

// Dataset is the full content of a source held in memory
type Dataset struct {
	Thematics   []string                      `yaml:"thematics"`
	OtherGuests []string                      `yaml:"other_guests"`
	Scores      map[string]map[string]float64 `yaml:"scores"`
}

// Apply pushes the dataset into sink. Registries go first so a concurrent
// reader never sees scores for thematics it cannot iterate.
func (d *Dataset) Apply(sink Sink) {
	sink.InsertThematicIDs(d.Thematics)
	sink.InsertOtherGuestIDs(d.OtherGuests)

	guests := make([]string, 0, len(d.Scores))
	for guestID := range d.Scores {
		guests = append(guests, guestID)
	}
	sort.Strings(guests)

	for _, guestID := range guests {
		for thematicID, score := range d.Scores[guestID] {
			sink.InsertScore(guestID, thematicID, score)
		}
	}
}

// ScoreCount returns the number of (guest, thematic) scores in the dataset
func (d *Dataset) ScoreCount() int {
	n := 0
	for _, thematics := range d.Scores {
		n += len(thematics)
	}
	return n
}

// FromConfig returns the source described by cfg, or nil for SourceNone
func FromConfig(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case config.SourceNone, "":
		return nil, nil
	case config.SourceYAML:
		return NewYAMLSource(cfg.Path), nil
	case config.SourceSQLite:
		src, err := OpenSQLiteSource(cfg.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", cfg.Kind)
	}
}
