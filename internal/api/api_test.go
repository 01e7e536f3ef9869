package api

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/iishyfishyy/guestdist/internal/calculator"
	"github.com/iishyfishyy/guestdist/internal/distance"
)

func newTestRouter(t *testing.T) (*calculator.Calculator, http.Handler) {
	t.Helper()
	calc := calculator.New(zerolog.Nop())
	return calc, NewRouter(calc)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	steps := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/v1/thematics", `{"ids":["food","travel"]}`},
		{http.MethodPut, "/v1/scores", `[
			{"guest_id":"A","thematic_id":"food","score":1.0},
			{"guest_id":"A","thematic_id":"travel","score":3.0},
			{"guest_id":"B","thematic_id":"food","score":1.5},
			{"guest_id":"B","thematic_id":"travel","score":3.5},
			{"guest_id":"C","thematic_id":"food","score":5},
			{"guest_id":"C","thematic_id":"travel","score":5}
		]`},
		{http.MethodPost, "/v1/other-guests", `{"ids":["B","C"]}`},
	}
	for _, s := range steps {
		if rec := do(t, h, s.method, s.path, s.body); rec.Code != http.StatusOK {
			t.Fatalf("%s %s = %d: %s", s.method, s.path, rec.Code, rec.Body.String())
		}
	}
}

func TestCalculateDistancesEndpoint(t *testing.T) {
	_, h := newTestRouter(t)
	seed(t, h)

	rec := do(t, h, http.MethodPost, "/v1/distances", `{"guest_ids":["A"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `[{"guest_a_id":"A","guest_b_id":"B","distance":0.5}]`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGetScoreEndpoint(t *testing.T) {
	_, h := newTestRouter(t)
	seed(t, h)

	rec := do(t, h, http.MethodGet, "/v1/scores/B/travel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got ScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Score != 3.5 {
		t.Errorf("score = %v, want 3.5", got.Score)
	}

	if rec := do(t, h, http.MethodGet, "/v1/scores/B/music", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing score status = %d, want 404", rec.Code)
	}
}

func TestTotalDistanceEndpoint(t *testing.T) {
	_, h := newTestRouter(t)
	seed(t, h)

	rec := do(t, h, http.MethodGet, "/v1/distances/A/C", "")
	var got TotalDistanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Distance != 3.0 {
		t.Errorf("distance = %v, want 3", got.Distance)
	}
}

func TestStatsAndClear(t *testing.T) {
	_, h := newTestRouter(t)
	seed(t, h)

	var st distance.Stats
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/v1/stats", "").Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if want := (distance.Stats{Guests: 3, Thematics: 2, OtherGuests: 2}); st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}

	if rec := do(t, h, http.MethodDelete, "/v1/store", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if got := do(t, h, http.MethodPost, "/v1/distances", `{"guest_ids":["A"]}`).Body.String(); got != "[]" {
		t.Errorf("distances after clear = %s", got)
	}
}

func TestBadRequests(t *testing.T) {
	_, h := newTestRouter(t)

	tests := []struct {
		name, method, path, body string
	}{
		{"malformed json", http.MethodPost, "/v1/distances", `{"guest_ids":`},
		{"wrong shape", http.MethodPost, "/v1/thematics", `["food"]`},
		{"missing ids", http.MethodPut, "/v1/scores", `[{"score":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %s", rec.Body.String())
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}

	rec = do(t, h, http.MethodGet, "/healthz", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestCalculateDistancesNonFiniteEndpoint(t *testing.T) {
	calc, h := newTestRouter(t)
	calc.InsertThematicIDs([]string{"food"})
	calc.InsertScore("A", "food", math.Inf(1))
	calc.InsertScore("B", "food", math.Inf(1))
	calc.InsertOtherGuestIDs([]string{"B"})

	rec := do(t, h, http.MethodPost, "/v1/distances", `{"guest_ids":["A"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := `[{"guest_a_id":"A","guest_b_id":"B","distance":null}]`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestRecoverFatal(t *testing.T) {
	h := RecoverFatal()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(&distance.FatalError{Resource: "scores", Err: distance.ErrPoisoned})
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoverFatalPassesOtherPanics(t *testing.T) {
	h := RecoverFatal()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestRouter(t)
	seed(t, h)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "guestdist_http_requests_total") {
		t.Error("metrics output should include the request counter")
	}
}
