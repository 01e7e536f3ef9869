package distance

// Store holds guest scores and the thematic and other-guest registries.
// Each of the three resources is guarded by its own lock.
type Store struct {
	scores      map[string]map[string]float64
	scoresGuard *guard

	// thematicsCount is kept in step with thematicIDs on insert
	// and read together with it under thematicsGuard.
	thematicIDs    map[string]struct{}
	thematicsCount int
	thematicsGuard *guard

	otherGuestIDs    map[string]struct{}
	otherGuestsGuard *guard
}

// Stats is a point-in-time view of the registry sizes
type Stats struct {
	Guests      int `json:"guests"`
	Thematics   int `json:"thematics"`
	OtherGuests int `json:"other_guests"`
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		scores:           make(map[string]map[string]float64),
		scoresGuard:      newGuard("scores"),
		thematicIDs:      make(map[string]struct{}),
		thematicsGuard:   newGuard("thematics"),
		otherGuestIDs:    make(map[string]struct{}),
		otherGuestsGuard: newGuard("other_guests"),
	}
}

// InsertScore stores the score of a guest for a thematic, replacing any
// previous value for the same pair.
func (s *Store) InsertScore(guestID, thematicID string, score float64) {
	s.scoresGuard.write(func() {
		thematics, ok := s.scores[guestID]
		if !ok {
			thematics = make(map[string]float64)
			s.scores[guestID] = thematics
		}
		thematics[thematicID] = score
	})
}

// InsertThematicIDs merges ids into the thematic registry
func (s *Store) InsertThematicIDs(ids []string) {
	s.thematicsGuard.write(func() {
		for _, id := range ids {
			if _, exists := s.thematicIDs[id]; exists {
				continue
			}
			s.thematicIDs[id] = struct{}{}
			s.thematicsCount++
		}
	})
}

// InsertOtherGuestIDs merges ids into the set of guests every queried guest
// is compared against.
func (s *Store) InsertOtherGuestIDs(ids []string) {
	s.otherGuestsGuard.write(func() {
		for _, id := range ids {
			s.otherGuestIDs[id] = struct{}{}
		}
	})
}

// Score returns the score of a guest for a thematic
func (s *Store) Score(guestID, thematicID string) (float64, bool) {
	var (
		score float64
		ok    bool
	)
	s.scoresGuard.read(func() {
		thematics, found := s.scores[guestID]
		if !found {
			return
		}
		score, ok = thematics[thematicID]
	})
	return score, ok
}

// ThematicsCount returns the cached number of registered thematics
func (s *Store) ThematicsCount() int {
	var n int
	s.thematicsGuard.read(func() {
		n = s.thematicsCount
	})
	return n
}

// Stats returns the size of each resource. The three sizes are read one
// lock at a time and may not describe a single instant.
func (s *Store) Stats() Stats {
	var st Stats
	s.scoresGuard.read(func() {
		st.Guests = len(s.scores)
	})
	s.thematicsGuard.read(func() {
		st.Thematics = s.thematicsCount
	})
	s.otherGuestsGuard.read(func() {
		st.OtherGuests = len(s.otherGuestIDs)
	})
	return st
}

// Clear empties every resource. Resources are reset one after the other, so
// a concurrent reader can observe some of them cleared and others not.
func (s *Store) Clear() {
	s.scoresGuard.write(func() {
		s.scores = make(map[string]map[string]float64)
	})
	s.thematicsGuard.write(func() {
		s.thematicIDs = make(map[string]struct{})
		s.thematicsCount = 0
	})
	s.otherGuestsGuard.write(func() {
		s.otherGuestIDs = make(map[string]struct{})
	})
}
