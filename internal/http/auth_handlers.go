package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/validation"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// startSession creates a session for the user and sets the cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *auth.User) bool {
	ctx := r.Context()
	session, err := auth.NewSession(user.ID, s.sessionTTL)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to create session", err.Error())
		return false
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to store session", err.Error())
		return false
	}
	s.setSessionCookie(w, session.ID, session.ExpiresAt)
	return true
}

// handleRegister handles POST /api/v1/auth/register.
// Request: {"name": "...", "email": "...", "password": "..."}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if err := validation.ValidateName(input.Name); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid name", err.Error())
		return
	}
	if err := validation.ValidateEmail(input.Email, s.emailDomain); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid email", err.Error())
		return
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid password", err.Error())
		return
	}

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to check email", err.Error())
		return
	}
	if existing != nil {
		s.writeErr(ctx, w, http.StatusConflict, "email already registered", "")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to hash password", err.Error())
		return
	}
	id, err := auth.NewUserID()
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to generate user id", err.Error())
		return
	}

	user := &auth.User{
		ID:           id,
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		AuthProvider: "local",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if err == auth.ErrUserExists {
			s.writeErr(ctx, w, http.StatusConflict, "email already registered", "")
			return
		}
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to create user", err.Error())
		return
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	if !s.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin handles POST /api/v1/auth/login.
// Request: {"email": "...", "password": "..."}
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}

	if err := validation.ValidateEmail(strings.TrimSpace(input.Email), s.emailDomain); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid email", err.Error())
		return
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to look up user", err.Error())
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || auth.VerifyPassword(input.Password, user.PasswordHash) != nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)

	if !s.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleLogout handles POST /api/v1/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.Delete(ctx, cookie.Value); err != nil {
			s.logger.WarnContext(ctx, "failed to delete session", "error", err)
		}
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/v1/auth/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}
