package v1

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweeplabs/sweepd/pkg/logger"
	"github.com/sweeplabs/sweepd/pkg/ranking"
)

// RankingRouter sets up the leaderboard routes.
func RankingRouter(store ranking.Store) http.Handler {
	routes := &rankingRoutes{store: store}
	r := chi.NewRouter()
	r.Post("/", routes.submitScore)
	r.Get("/", routes.topByDifficulty)
	r.Get("/player", routes.topByPlayer)
	return r
}

type rankingRoutes struct {
	store ranking.Store
}

// submitScoreRequest is the typed submission payload. Pointer fields
// distinguish absent values from zero values so the shape check can
// reject partial payloads outright.
type submitScoreRequest struct {
	Nickname   *string  `json:"nickname"`
	Difficulty *string  `json:"difficulty"`
	Time       *float64 `json:"time"`
}

func (req *submitScoreRequest) validate() string {
	switch {
	case req.Nickname == nil || *req.Nickname == "":
		return "nickname is required"
	case req.Difficulty == nil || *req.Difficulty == "":
		return "difficulty is required"
	case req.Time == nil:
		return "time is required"
	case math.IsNaN(*req.Time) || math.IsInf(*req.Time, 0) || *req.Time < 0:
		return "time must be a non-negative number"
	}
	return ""
}

// submitScore appends a leaderboard entry. The request shape is validated
// before any store access; the entry timestamp comes from the server
// clock, never the client.
func (h *rankingRoutes) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	entry := &ranking.Entry{
		Nickname:   *req.Nickname,
		Difficulty: *req.Difficulty,
		Time:       *req.Time,
	}
	if err := h.store.Add(r.Context(), entry); err != nil {
		logger.Errorw("failed to store ranking entry", "err", err)
		http.Error(w, "Failed to store ranking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ranking added successfully!"))
}

// topByDifficulty returns the ranked entries for one difficulty, capped
// at 100 and sorted ascending by time. Rank numbers are not computed
// server-side; rank equals list position.
func (h *rankingRoutes) topByDifficulty(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	if difficulty == "" {
		http.Error(w, "Difficulty is required", http.StatusBadRequest)
		return
	}

	entries, err := h.store.TopByDifficulty(r.Context(), difficulty)
	if err != nil {
		logger.Errorw("failed to read ranking", "difficulty", difficulty, "err", err)
		http.Error(w, "Failed to read ranking", http.StatusInternalServerError)
		return
	}

	writeJSON(w, entries)
}

// topByPlayer returns one player's ranked entries for a difficulty. An
// absent nickname matches nothing and yields an empty list.
func (h *rankingRoutes) topByPlayer(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	difficulty := query.Get("difficulty")
	if difficulty == "" {
		http.Error(w, "Difficulty is required", http.StatusBadRequest)
		return
	}

	entries, err := h.store.TopByPlayer(r.Context(), difficulty, query.Get("nickname"))
	if err != nil {
		logger.Errorw("failed to read player ranking", "difficulty", difficulty, "err", err)
		http.Error(w, "Failed to read ranking", http.StatusInternalServerError)
		return
	}

	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("failed to encode response", "err", err)
	}
}
