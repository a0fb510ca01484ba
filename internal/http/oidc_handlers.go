package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth/oidc"
)

// loginStateMaxAge bounds how long an IdP round trip may take.
const loginStateMaxAge = 10 * time.Minute

type oidcState struct {
	provider      *oidc.Provider
	encryptionKey []byte
}

// EnableOIDC turns on single sign-on. Must be called before RegisterRoutes.
func (s *Server) EnableOIDC(provider *oidc.Provider, encryptionKey []byte) {
	s.oidc = &oidcState{provider: provider, encryptionKey: encryptionKey}
}

// loginState is round-tripped through the browser, encrypted, to bind the
// callback to a login this server started.
type loginState struct {
	Nonce    string    `json:"nonce"`
	IssuedAt time.Time `json:"issued_at"`
}

// handleOIDCLogin handles GET /api/v1/auth/oidc/login: redirects to the IdP.
func (s *Server) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to generate state", err.Error())
		return
	}

	raw, err := json.Marshal(loginState{
		Nonce:    hex.EncodeToString(nonce),
		IssuedAt: time.Now().UTC(),
	})
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to encode state", err.Error())
		return
	}
	state, err := oidc.Encrypt(string(raw), s.oidc.encryptionKey)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to protect state", err.Error())
		return
	}

	http.Redirect(w, r, s.oidc.provider.AuthCodeURL(state), http.StatusFound)
}

// handleOIDCCallback handles GET /api/v1/auth/oidc/callback: completes the
// code exchange, provisions the user on first sign-in, and starts a session.
func (s *Server) handleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		s.writeErr(ctx, w, http.StatusBadRequest, "sign-in rejected by identity provider", errCode)
		return
	}

	raw, err := oidc.Decrypt(q.Get("state"), s.oidc.encryptionKey)
	if err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid state", "")
		return
	}
	var state loginState
	if err := json.Unmarshal([]byte(raw), &state); err != nil || state.Nonce == "" {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid state", "")
		return
	}
	if time.Since(state.IssuedAt) > loginStateMaxAge {
		s.writeErr(ctx, w, http.StatusBadRequest, "login attempt expired", "")
		return
	}

	code := q.Get("code")
	if code == "" {
		s.writeErr(ctx, w, http.StatusBadRequest, "missing code", "")
		return
	}

	claims, err := s.oidc.provider.Exchange(ctx, code)
	if err != nil {
		s.writeErr(ctx, w, http.StatusBadGateway, "token exchange failed", err.Error())
		return
	}
	if !claims.EmailAllowed(s.emailDomain) {
		s.writeErr(ctx, w, http.StatusForbidden, "email not allowed", "use your institution account")
		return
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to look up user", err.Error())
		return
	}
	if user == nil {
		id, err := auth.NewUserID()
		if err != nil {
			s.writeErr(ctx, w, http.StatusInternalServerError, "failed to generate user id", err.Error())
			return
		}
		name := strings.TrimSpace(claims.Name)
		if name == "" {
			name, _, _ = strings.Cut(claims.Email, "@")
		}
		user = &auth.User{
			ID:           id,
			Name:         name,
			Email:        strings.ToLower(claims.Email),
			AuthProvider: "oidc",
			OIDCSubject:  claims.Subject,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			s.writeErr(ctx, w, http.StatusInternalServerError, "failed to create user", err.Error())
			return
		}
		s.logger.InfoContext(ctx, "user provisioned via sso", "user_id", user.ID)
	}

	if !s.startSession(w, r, user) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
