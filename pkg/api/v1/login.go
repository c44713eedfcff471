package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/logger"
	"github.com/sweeplabs/sweepd/pkg/upstream"
)

// LoginRouter sets up the OAuth callback route.
func LoginRouter(provider upstream.IdentityProvider, store login.Store) http.Handler {
	routes := &loginRoutes{provider: provider, store: store}
	r := chi.NewRouter()
	r.Get("/callback", routes.oauthCallback)
	return r
}

type loginRoutes struct {
	provider upstream.IdentityProvider
	store    login.Store
}

// oauthCallback receives the identity provider's redirect, exchanges the
// authorization code for the caller's identity and writes the signaling
// record under the state token. The waiting browser tab picks the record
// up through its store subscription; no session or redirect happens here.
//
// A reused token silently overwrites the earlier record. On any upstream
// failure nothing is written and the watcher is left waiting; its own
// deadline is its recourse.
func (h *loginRoutes) oauthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	state := query.Get("state")
	if state == "" {
		http.Error(w, "Missing state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing auth code", http.StatusBadRequest)
		return
	}

	identity, err := h.provider.ResolveIdentity(r.Context(), code)
	if err != nil {
		logger.Errorw("failed to resolve identity", "err", err)
		http.Error(w, "Failed to fetch user information", http.StatusInternalServerError)
		return
	}

	rec := &login.Record{
		Token:     state,
		Identity:  identity,
		CreatedAt: time.Now(),
	}
	if err := h.store.Put(r.Context(), rec); err != nil {
		logger.Errorw("failed to write signaling record", "err", err)
		http.Error(w, "Failed to record login", http.StatusInternalServerError)
		return
	}

	logger.Infow("login exchange complete", "identity", identity)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Successfully login. Please close this window."))
}
