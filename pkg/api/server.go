// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api contains the REST API for sweepd.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/sweeplabs/sweepd/pkg/api/v1"
	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/logger"
	"github.com/sweeplabs/sweepd/pkg/ranking"
	"github.com/sweeplabs/sweepd/pkg/upstream"
)

// Not sure if these values need to be configurable.
const (
	middlewareTimeout = 60 * time.Second // OAuth exchange involves two upstream round trips
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 65 * time.Second // Must be > middlewareTimeout to let middleware handle timeout
	idleTimeout       = 60 * time.Second
	gracefulTimeout   = 30 * time.Second
)

// NewRouter assembles the full HTTP surface. Split out of Serve so tests
// can drive it with httptest.
func NewRouter(
	provider upstream.IdentityProvider,
	loginStore login.Store,
	rankingStore ranking.Store,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(middlewareTimeout),
	)

	routers := map[string]http.Handler{
		"/health":         v1.HealthcheckRouter(loginStore),
		"/oauth":          v1.LoginRouter(provider, loginStore),
		"/api/v1/ranking": v1.RankingRouter(rankingStore),
	}
	for prefix, router := range routers {
		r.Mount(prefix, router)
	}

	return r
}

// Serve starts the server on the given address and serves the API until
// ctx is canceled, then shuts down gracefully. It is assumed that the
// caller sets up appropriate signal handling.
func Serve(
	ctx context.Context,
	address string,
	provider upstream.IdentityProvider,
	loginStore login.Store,
	rankingStore ranking.Store,
) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           NewRouter(provider, loginStore, rankingStore),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting HTTP server on %s", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped with error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Infof("HTTP server stopped")
	return nil
}
