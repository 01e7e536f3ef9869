// Package calculator exposes the guest distance store to its host: the
// HTTP API and the command line both go through a Calculator.
package calculator

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/iishyfishyy/guestdist/internal/distance"
	"github.com/iishyfishyy/guestdist/internal/metrics"
	"github.com/iishyfishyy/guestdist/internal/source"
)

// Calculator owns a store and the engine ranking over it
type Calculator struct {
	store  *distance.Store
	engine *distance.Engine
	logger zerolog.Logger
}

// ScoreEntry is one guest score for a thematic
type ScoreEntry struct {
	GuestID    string  `json:"guest_id"`
	ThematicID string  `json:"thematic_id"`
	Score      float64 `json:"score"`
}

// New creates a calculator over an empty store
func New(logger zerolog.Logger) *Calculator {
	return NewWithStore(distance.NewStore(), logger)
}

// NewWithStore creates a calculator over an existing store
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewWithStore(store *distance.Store, logger zerolog.Logger) *Calculator {
	return &Calculator{
		store:  store,
		engine: distance.NewEngine(store),
		logger: logger.With().Str("component", "calculator").Logger(),
	}
}

// SetParallelism sets how many queried guests are ranked concurrently
func (c *Calculator) SetParallelism(n int) {
	c.engine.SetParallelism(n)
}

// InsertScore stores or replaces a guest score
func (c *Calculator) InsertScore(guestID, thematicID string, score float64) {
	c.store.InsertScore(guestID, thematicID, score)
	metrics.RecordOperation("insert_score")
	c.logger.Debug().
		Str("guest_id", guestID).
		Str("thematic_id", thematicID).
		Float64("score", score).
		Msg("Score inserted")
	c.recordSize()
}

// InsertScores stores a batch of scores
func (c *Calculator) InsertScores(entries []ScoreEntry) {
	for _, e := range entries {
		c.store.InsertScore(e.GuestID, e.ThematicID, e.Score)
	}
	metrics.RecordOperation("insert_score")
	c.logger.Debug().Int("count", len(entries)).Msg("Scores inserted")
	c.recordSize()
}

// InsertThematicIDs registers thematics
func (c *Calculator) InsertThematicIDs(ids []string) {
	c.store.InsertThematicIDs(ids)
	metrics.RecordOperation("insert_thematic_ids")
	c.logger.Debug().Strs("ids", ids).Msg("Thematics registered")
	c.recordSize()
}

// InsertOtherGuestIDs registers the guests matches are drawn from
func (c *Calculator) InsertOtherGuestIDs(ids []string) {
	c.store.InsertOtherGuestIDs(ids)
	metrics.RecordOperation("insert_other_guest_ids")
	c.logger.Debug().Strs("ids", ids).Msg("Other guests registered")
	c.recordSize()
}

// Score returns the stored score of a guest for a thematic
func (c *Calculator) Score(guestID, thematicID string) (float64, bool) {
	metrics.RecordOperation("get_score")
	return c.store.Score(guestID, thematicID)
}

// TotalDistance returns the normalized distance between two guests
func (c *Calculator) TotalDistance(guestAID, guestBID string) float64 {
	metrics.RecordOperation("total_distance")
	return c.engine.TotalDistance(guestAID, guestBID)
}

// RankMatches returns the closest other guests of each queried guest
func (c *Calculator) RankMatches(guestIDs []string) []distance.Distance {
	metrics.RecordOperation("calculate_distances")

	start := time.Now()
	r := c.engine.Rank(guestIDs)
	elapsed := time.Since(start)

	metrics.RecordRank(elapsed, len(r.Matches), r.Filtered)
	c.logger.Info().
		Int("guests", len(guestIDs)).
		Int("compared", r.Compared).
		Int("filtered", r.Filtered).
		Int("truncated", r.Truncated).
		Int("results", len(r.Matches)).
		Dur("took", elapsed).
		Msg("Distances calculated")

	return r.Matches
}

// CalculateDistances ranks the queried guests and returns the result as a
// JSON array of {guest_a_id, guest_b_id, distance} objects.
func (c *Calculator) CalculateDistances(guestIDs []string) string {
	return EncodeDistances(c.RankMatches(guestIDs))
}

// EncodeDistances serializes distances. Non-finite distances are written as
// null. An encoder failure is treated as a fatal fault.
func EncodeDistances(distances []distance.Distance) string {
	if distances == nil {
		distances = []distance.Distance{}
	}
	data, err := json.Marshal(distances)
	if err != nil {
		panic(&distance.FatalError{
			Resource: "distances",
			Err:      fmt.Errorf("%w: %w", distance.ErrEncode, err),
		})
	}
	return string(data)
}

// Stats returns the size of each resource
func (c *Calculator) Stats() distance.Stats {
	st := c.store.Stats()
	metrics.RecordStoreSize(st.Guests, st.Thematics, st.OtherGuests)
	return st
}

// Clear empties the store. See distance.Store.Clear for its guarantees.
func (c *Calculator) Clear() {
	c.store.Clear()
	metrics.RecordOperation("clear")
	c.logger.Info().Msg("Store cleared")
	c.recordSize()
}

// Load pushes the content of src into the store
func (c *Calculator) Load(ctx context.Context, src source.Source) error {
	start := time.Now()
	if err := src.Load(ctx, c.store); err != nil {
		return fmt.Errorf("failed to load %s: %w", src.Name(), err)
	}

	st := c.Stats()
	c.logger.Info().
		Str("source", src.Name()).
		Int("guests", st.Guests).
		Int("thematics", st.Thematics).
		Int("other_guests", st.OtherGuests).
		Dur("took", time.Since(start)).
		Msg("Source loaded")

	return nil
}

func (c *Calculator) recordSize() {
	st := c.store.Stats()
	metrics.RecordStoreSize(st.Guests, st.Thematics, st.OtherGuests)
}
