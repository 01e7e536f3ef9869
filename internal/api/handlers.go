package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/iishyfishyy/guestdist/internal/calculator"
	"github.com/iishyfishyy/guestdist/internal/logging"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 8 << 20

// Handler holds the HTTP handlers
type Handler struct {
	calc *calculator.Calculator
}

// IDsRequest registers thematics or other guests
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// DistancesRequest lists the guests to rank
type DistancesRequest struct {
	GuestIDs []string `json:"guest_ids"`
}

// ScoreResponse is a single stored score
type ScoreResponse struct {
	GuestID    string  `json:"guest_id"`
	ThematicID string  `json:"thematic_id"`
	Score      float64 `json:"score"`
}

// TotalDistanceResponse is the distance between two guests
type TotalDistanceResponse struct {
	GuestAID string  `json:"guest_a_id"`
	GuestBID string  `json:"guest_b_id"`
	Distance float64 `json:"distance"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// InsertScores stores a batch of scores
func (h *Handler) InsertScores(w http.ResponseWriter, r *http.Request) {
	var entries []calculator.ScoreEntry
	if !decodeBody(w, r, &entries) {
		return
	}
	for i, e := range entries {
		if e.GuestID == "" || e.ThematicID == "" {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("entry %d: guest_id and thematic_id are required", i))
			return
		}
	}

	h.calc.InsertScores(entries)
	respondJSON(w, http.StatusOK, map[string]int{"inserted": len(entries)})
}

// GetScore returns one stored score, 404 when absent
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestID")
	thematicID := chi.URLParam(r, "thematicID")

	score, ok := h.calc.Score(guestID, thematicID)
	if !ok {
		respondError(w, http.StatusNotFound, "score not found")
		return
	}
	respondJSON(w, http.StatusOK, ScoreResponse{GuestID: guestID, ThematicID: thematicID, Score: score})
}

// InsertThematicIDs registers thematics
func (h *Handler) InsertThematicIDs(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.calc.InsertThematicIDs(req.IDs)
	respondJSON(w, http.StatusOK, h.calc.Stats())
}

// InsertOtherGuestIDs registers the guests matches are drawn from
func (h *Handler) InsertOtherGuestIDs(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.calc.InsertOtherGuestIDs(req.IDs)
	respondJSON(w, http.StatusOK, h.calc.Stats())
}

// CalculateDistances ranks the requested guests
func (h *Handler) CalculateDistances(w http.ResponseWriter, r *http.Request) {
	var req DistancesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	body := h.calc.CalculateDistances(req.GuestIDs)
	logging.Ctx(r.Context()).Debug().Int("guests", len(req.GuestIDs)).Msg("Ranking served")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// TotalDistance returns the distance between two guests
func (h *Handler) TotalDistance(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "guestAID")
	b := chi.URLParam(r, "guestBID")
	respondJSON(w, http.StatusOK, TotalDistanceResponse{
		GuestAID: a,
		GuestBID: b,
		Distance: h.calc.TotalDistance(a, b),
	})
}

// Stats returns resource sizes
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.calc.Stats())
}

// Clear empties the store
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.calc.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+strings.TrimSpace(err.Error()))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
