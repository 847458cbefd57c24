package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/api/auth"
	"github.com/salsipuedes/water-metering-api/internal/db"
	"github.com/salsipuedes/water-metering-api/internal/repository"
)

// CredentialChecker validates a login attempt against the user table
type CredentialChecker interface {
	ValidarUsuario(ctx context.Context, email, password string) (*db.Usuario, error)
}

// AuthHandler serves the login and logout routes
type AuthHandler struct {
	usuarios CredentialChecker
	sessions *auth.SessionManager
	logger   *zap.Logger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(usuarios CredentialChecker, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		usuarios: usuarios,
		sessions: sessions,
		logger:   logger,
	}
}

type credenciales struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a session cookie. The field app
// sends credentials as query parameters on a GET; a JSON body works as
// a fallback.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds := credenciales{
		Email:    r.URL.Query().Get("email"),
		Password: r.URL.Query().Get("password"),
	}
	if creds.Email == "" && r.Body != nil {
		json.NewDecoder(r.Body).Decode(&creds)
	}

	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusUnauthorized, msgCredencialesMalas)
		return
	}

	usuario, err := h.usuarios.ValidarUsuario(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, repository.ErrCredencialesInvalidas) {
			writeError(w, http.StatusUnauthorized, msgCredencialesMalas)
			return
		}
		h.logger.Error("credential check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}

	if err := h.sessions.Issue(w, usuario.Email); err != nil {
		h.logger.Error("failed to issue session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}

	h.logger.Info("user logged in", zap.String("email", usuario.Email))
	writeJSON(w, http.StatusOK, map[string]string{"exito": msgLoginExitoso})
}

// Logout clears the session cookie. The route keeps the client's
// misspelled path ("logut") because the installed field app requests it
// that way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": msgSesionCerrada})
}
