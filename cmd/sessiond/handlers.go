package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type user struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LoginIP string `json:"login_ip,omitempty"`
}

type handlers struct {
	log *slog.Logger
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return sess, true
}

// show returns the whole session mapping.
func (h *handlers) show(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := sess.Data(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// visit increments a per-session counter.
func (h *handlers) visit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	v, err := sess.Get(ctx, "visits")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, _ := v.Int()
	n++
	if err := sess.Set(ctx, "visits", n); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": n})
}

// login moves the session to a fresh id and stores the user under "user".
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := sess.Regenerate(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	u := user{ID: uuid.NewString(), Name: name, LoginIP: clientip.FromContext(ctx)}
	if err := sess.Set(ctx, "user", map[string]any{
		"id":       u.ID,
		"name":     u.Name,
		"login_ip": u.LoginIP,
	}); err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.InfoContext(ctx, "user logged in", logger.UserID(u.ID), logger.SessionID(sess.ID()))
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var u user
	found, err := sess.Bind(r.Context(), "user", &u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionIDNotExists):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrWriteConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "session request failed", logger.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
