package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		pinger         *stubPinger
		expectedStatus int
	}{
		{
			name:           "store reachable",
			pinger:         &stubPinger{},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "store unreachable",
			pinger:         &stubPinger{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			router.Mount("/", HealthcheckRouter(tt.pinger))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
