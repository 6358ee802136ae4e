package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/ender-tasks/internal/auth"
	"github.com/isdelr/ender-tasks/internal/services"
	"github.com/rs/zerolog/log"
)

const msgCredentialsRequired = "username and password are required"

// UserHandler handles HTTP requests for registration and login.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenIssuer) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// CredentialsPayload is the body of POST /user and POST /login.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserResponse is returned by POST /user.
type CreateUserResponse struct {
	ID      int    `json:"id"`
	Success string `json:"success"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Token string `json:"token"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (CredentialsPayload, bool) {
	var payload CredentialsPayload
	present, err := decodeBody(r, &payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return payload, false
	}
	if !present || payload.Username == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, msgCredentialsRequired)
		return payload, false
	}
	return payload, true
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	payload, ok := readCredentials(w, r)
	if !ok {
		return
	}

	id, err := h.service.CreateUser(payload.Username, payload.Password)
	if err != nil {
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{ID: id, Success: "user created"})
}

// Login handles credential validation and token issuing.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, ok := readCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.service.ValidateCredentials(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to validate credentials")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to generate token")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
