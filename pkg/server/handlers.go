package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/render"
	"github.com/vango-dev/userpages/pkg/toast"
)

func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	return s.sessions.Resolve(w, r, s.config.SecureCookies)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.writePage(w, func(w http.ResponseWriter) error {
		return s.renderer.RenderIndex(w, render.PageData{Toasts: sess.TakeToasts()})
	})
}

// Profile

func (s *Server) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	snap := sess.Profile().Snapshot()
	s.writePage(w, func(w http.ResponseWriter) error {
		return s.renderer.RenderProfile(w, render.PageData{
			Toasts: sess.TakeToasts(),
			Live:   "/ws/" + ChannelProfile,
		}, snap)
	})
}

func (s *Server) handleProfileRetry(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Profile().StartLoadProfile(sess.Context())
	seeOther(w, r, "/profile")
}

// handleProfileSubmit applies the submitted name and email to the draft
// and starts a save.
func (s *Server) handleProfileSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	ctrl := sess.Profile()

	for _, field := range []string{model.FieldName, model.FieldEmail} {
		if _, ok := r.PostForm[field]; !ok {
			continue
		}
		if _, err := ctrl.EditField(field, r.PostForm.Get(field)); err != nil {
			s.logger.Error("edit field failed", "field", field, "error", err)
		}
	}

	if _, err := ctrl.StartSubmit(sess.Context()); err != nil {
		s.rejectSubmit(sess, err)
	}
	seeOther(w, r, "/profile")
}

func (s *Server) rejectSubmit(sess *Session, err error) {
	switch {
	case errors.Is(err, profile.ErrSaveInFlight):
		toast.Warning(sess, err.Error())
	case errors.Is(err, profile.ErrNotReady):
		toast.Error(sess, err.Error())
	default:
		toast.Error(sess, apperrors.Message(err, profile.FailureFallback))
	}
	sess.logger.Debug("submit rejected", "error", err)
}

// handleProfileField edits one field of the draft without saving.
func (s *Server) handleProfileField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	field := r.PostForm.Get("field")
	if _, err := sess.Profile().EditField(field, r.PostForm.Get("value")); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	seeOther(w, r, "/profile")
}

func (s *Server) handleProfileAPI(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.writeJSON(w, http.StatusOK, sess.Profile().Snapshot())
}

// Users

// handleUsersPage renders the current page. A page query parameter, clamped
// to [1, totalPages], jumps to that page when it differs from the current
// one.
func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctrl := sess.Users()

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest,
				apperrors.New(apperrors.CodeInvalidPage).WithDetail("page must be an integer"))
			return
		}
		n = min(max(n, 1), ctrl.TotalPages())
		if n != ctrl.Page() {
			ctrl.StartLoadPage(sess.Context(), n)
		}
	}

	snap := ctrl.Snapshot()
	s.writePage(w, func(w http.ResponseWriter) error {
		return s.renderer.RenderUsers(w, render.PageData{
			Toasts: sess.TakeToasts(),
			Live:   "/ws/" + ChannelUsers,
		}, snap)
	})
}

type navigation int

const (
	navPrev navigation = iota
	navNext
	navRetry
)

func (s *Server) handleUsersNav(nav navigation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(w, r)
		ctrl := sess.Users()
		switch nav {
		case navPrev:
			ctrl.StartPrevious(sess.Context())
		case navNext:
			ctrl.StartNext(sess.Context())
		case navRetry:
			ctrl.StartRetry(sess.Context())
		}
		seeOther(w, r, "/users")
	}
}

func (s *Server) handleUsersAPI(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.writeJSON(w, http.StatusOK, sess.Users().Snapshot())
}

// Push and ops

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if channel != ChannelProfile && channel != ChannelUsers {
		http.NotFound(w, r)
		return
	}
	sess := s.session(w, r)
	// Make sure the controller exists so there is something to push.
	if channel == ChannelProfile {
		sess.Profile()
	} else {
		sess.Users()
	}
	s.serveWebSocket(w, r, sess, channel)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// Helpers

func seeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (s *Server) writePage(w http.ResponseWriter, fn func(http.ResponseWriter) error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := fn(w); err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("json encode failed", "error", err)
	}
}

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Message: apperrors.Message(err, http.StatusText(status))}
	var e *apperrors.Error
	if errors.As(err, &e) {
		body.Code = e.Code
		body.Detail = e.Detail
	}
	s.writeJSON(w, status, body)
}
