// Package api serves the calculator over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iishyfishyy/guestdist/internal/calculator"
)

// NewRouter wires every route to calc
func NewRouter(calc *calculator.Calculator) http.Handler {
	h := &Handler{calc: calc}

	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog())
	r.Use(RecoverFatal())

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Put("/scores", h.InsertScores)
		r.Get("/scores/{guestID}/{thematicID}", h.GetScore)
		r.Post("/thematics", h.InsertThematicIDs)
		r.Post("/other-guests", h.InsertOtherGuestIDs)
		r.Post("/distances", h.CalculateDistances)
		r.Get("/distances/{guestAID}/{guestBID}", h.TotalDistance)
		r.Get("/stats", h.Stats)
		r.Delete("/store", h.Clear)
	})

	return r
}
