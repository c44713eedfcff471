package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Pinger reports backing-store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthcheckRouter sets up the healthcheck route.
func HealthcheckRouter(store Pinger) http.Handler {
	routes := &healthcheckRoutes{store: store}
	r := chi.NewRouter()
	r.Get("/", routes.getHealthcheck)
	return r
}

type healthcheckRoutes struct {
	store Pinger
}

func (h *healthcheckRoutes) getHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		// If the store is unreachable, neither the login handoff nor the
		// leaderboard can serve, so the whole API reports unavailable.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
