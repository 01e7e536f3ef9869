package distance

import (
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	// Threshold is the largest distance a pair can have and still be ranked
	Threshold = 2.0

	// MatchesLimit caps the number of matches returned per queried guest
	MatchesLimit = 20
)

// Distance is the normalized distance between two guests
type Distance struct {
	GuestAID string  `json:"guest_a_id"`
	GuestBID string  `json:"guest_b_id"`
	Distance float64 `json:"distance"`
}

// Ranking is the outcome of a ranking pass
type Ranking struct {
	Matches []Distance

	// Compared is the number of pairs whose distance was computed
	Compared int
	// Filtered is the number of pairs above Threshold
	Filtered int
	// Truncated is the number of kept pairs dropped by MatchesLimit
	Truncated int
}

// Engine computes and ranks distances over the contents of a Store
type Engine struct {
	store       *Store
	parallelism int
}

// NewEngine creates an engine reading from store
func NewEngine(store *Store) *Engine {
	return &Engine{
		store:       store,
		parallelism: 1,
	}
}

// SetParallelism sets how many queried guests are ranked concurrently.
// Values below 1 are treated as 1.
func (e *Engine) SetParallelism(n int) {
	if n < 1 {
		n = 1
	}
	e.parallelism = n
}

// TotalDistance returns the sum of absolute score differences over every
// registered thematic, divided by the number of registered thematics.
// Thematics for which either guest has no score add nothing to the sum but
// still count in the divisor. With no thematics the result is 0.
//
// The thematic lock is held for the whole computation.
func (e *Engine) TotalDistance(guestAID, guestBID string) float64 {
	var total float64
	e.store.thematicsGuard.read(func() {
		count := e.store.thematicsCount
		for thematicID := range e.store.thematicIDs {
			scoreA, okA := e.store.Score(guestAID, thematicID)
			scoreB, okB := e.store.Score(guestBID, thematicID)
			if okA && okB {
				total += math.Abs(scoreA - scoreB)
			}
		}
		if count > 0 {
			total /= float64(count)
		}
	})
	return total
}

// CandidateDistance returns the distance between two guests, or false when
// it exceeds Threshold.
func (e *Engine) CandidateDistance(guestAID, guestBID string) (Distance, bool) {
	d := e.TotalDistance(guestAID, guestBID)
	if d > Threshold {
		return Distance{}, false
	}
	return Distance{GuestAID: guestAID, GuestBID: guestBID, Distance: d}, true
}

// RankMatches returns, for each queried guest in order, its closest other
// guests sorted by ascending distance and capped at MatchesLimit.
func (e *Engine) RankMatches(guestIDs []string) []Distance {
	return e.Rank(guestIDs).Matches
}

// Rank is RankMatches with counters about the pass.
//
// The other-guest lock is held for the whole pass, so guests registered
// while it runs are not compared. Groups of different queried guests are
// never merged: all matches of guestIDs[0] come before those of guestIDs[1].
func (e *Engine) Rank(guestIDs []string) Ranking {
	var ranking Ranking
	e.store.otherGuestsGuard.read(func() {
		candidates := make([]string, 0, len(e.store.otherGuestIDs))
		for id := range e.store.otherGuestIDs {
			candidates = append(candidates, id)
		}

		groups := make([]group, len(guestIDs))
		if e.parallelism > 1 && len(guestIDs) > 1 {
			e.rankConcurrently(guestIDs, candidates, groups)
		} else {
			for i, guestID := range guestIDs {
				groups[i] = e.rankOne(guestID, candidates)
			}
		}

		ranking.Matches = []Distance{}
		for _, g := range groups {
			ranking.Matches = append(ranking.Matches, g.matches...)
			ranking.Compared += len(candidates)
			ranking.Filtered += g.filtered
			ranking.Truncated += g.truncated
		}
	})
	return ranking
}

type group struct {
	matches   []Distance
	filtered  int
	truncated int
}

func (e *Engine) rankOne(guestID string, candidates []string) group {
	var g group
	for _, candidateID := range candidates {
		d, ok := e.CandidateDistance(guestID, candidateID)
		if !ok {
			g.filtered++
			continue
		}
		g.matches = append(g.matches, d)
	}

	// Ties are ordered by candidate id so output does not depend on map order
	sort.Slice(g.matches, func(i, j int) bool {
		return closer(g.matches[i], g.matches[j])
	})

	if len(g.matches) > MatchesLimit {
		g.truncated = len(g.matches) - MatchesLimit
		g.matches = g.matches[:MatchesLimit]
	}
	return g
}

// closer orders by distance then candidate id. NaN sorts after every number.
func closer(a, b Distance) bool {
	aNaN, bNaN := math.IsNaN(a.Distance), math.IsNaN(b.Distance)
	switch {
	case aNaN != bNaN:
		return bNaN
	case !aNaN && a.Distance != b.Distance:
		return a.Distance < b.Distance
	}
	return a.GuestBID < b.GuestBID
}

// rankConcurrently fills groups[i] for guestIDs[i]. A panic in a worker is
// re-raised on the calling goroutine so it unwinds through the held lock.
func (e *Engine) rankConcurrently(guestIDs, candidates []string, groups []group) {
	var (
		eg       errgroup.Group
		panicked = make([]any, len(guestIDs))
	)
	eg.SetLimit(e.parallelism)

	for i, guestID := range guestIDs {
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					panicked[i] = r
				}
			}()
			groups[i] = e.rankOne(guestID, candidates)
			return nil
		})
	}
	_ = eg.Wait()

	for _, r := range panicked {
		if r != nil {
			panic(r)
		}
	}
}

// MarshalJSON writes a non-finite distance as null
func (d Distance) MarshalJSON() ([]byte, error) {
	var value *float64
	if !math.IsNaN(d.Distance) && !math.IsInf(d.Distance, 0) {
		value = &d.Distance
	}
	return json.Marshal(struct {
		GuestAID string   `json:"guest_a_id"`
		GuestBID string   `json:"guest_b_id"`
		Distance *float64 `json:"distance"`
	}{d.GuestAID, d.GuestBID, value})
}

func (d Distance) String() string {
	return fmt.Sprintf("%s -> %s: %.4f", d.GuestAID, d.GuestBID, d.Distance)
}
