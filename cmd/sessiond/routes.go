package main

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/metrics"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
)

const readinessTimeout = 2 * time.Second

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(clientip.New().Middleware)
	r.Use(requestid.New())
	r.Use(environment.Middleware(a.env))
	r.Use(middleware.Recoverer)

	checks := append(slices.Clone(a.checks), httpserver.Check{
		Name: "session",
		Fn:   func(context.Context) error { return a.manager.Ready() },
	})

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(a.log, readinessTimeout, checks...))
	r.Handle("/metrics", metrics.Handler(a.registry))

	h := &handlers{log: a.log}
	r.Group(func(r chi.Router) {
		r.Use(a.manager.LazyMiddleware)

		r.Get("/session", h.show)
		r.Post("/session/visits", h.visit)
		r.Post("/login", h.login)
		r.Get("/me", h.me)
		r.Post("/logout", h.logout)
	})

	return r
}
