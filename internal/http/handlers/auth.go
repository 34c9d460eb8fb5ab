package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sasbridge/internal/auth"
	"sasbridge/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	MonthlyLimit int       `json:"monthly_request_limit"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		MonthlyLimit: u.MonthlyLimit,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// AuthRegister creates an account and returns its API key. The key is only
// ever shown here and on explicit regeneration.
func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("hash password failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create user")
		return
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		a.Logger.Error().Err(err).Msg("generate api key failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create user")
		return
	}
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashed,
		FullName:       strings.TrimSpace(req.FullName),
		APIKey:         apiKey,
		MonthlyLimit:   a.defaultLimit(),
		IsActive:       true,
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "conflict", "email already registered")
			return
		}
		a.Logger.Error().Err(err).Msg("create user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create user")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"user":    toUserDTO(user),
		"api_key": apiKey,
	})
}

// AuthLogin verifies email+password and issues a JWT.
func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := a.Users.GetByEmail(r.Context(), email)
	if err != nil || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}
	if !user.IsActive {
		a.error(w, http.StatusUnauthorized, "unauthorized", "account is inactive")
		return
	}
	token, err := auth.IssueToken(a.JWTSecret, user, a.now())
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserDTO(user),
	})
}

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}

// AuthUsage reports the current month's consumption against the quota.
func (a *App) AuthUsage(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	period := domain.PeriodOf(a.now())
	used, err := a.Usage.Current(r.Context(), user.ID, period)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load usage failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	remaining := user.MonthlyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	a.json(w, http.StatusOK, map[string]any{
		"year":      period.Year,
		"month":     int(period.Month),
		"used":      used,
		"limit":     user.MonthlyLimit,
		"remaining": remaining,
		"reset_at":  period.NextReset(),
	})
}

// AuthRegenerateAPIKey replaces the user's API key. The old key stops
// resolving immediately: the row update lands first and the cached identity
// is dropped before the response is written.
func (a *App) AuthRegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	newKey, err := auth.GenerateAPIKey()
	if err != nil {
		a.Logger.Error().Err(err).Msg("generate api key failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to rotate api key")
		return
	}
	if err := a.Users.RotateAPIKey(r.Context(), user.ID, newKey); err != nil {
		a.Logger.Error().Err(err).Msg("rotate api key failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to rotate api key")
		return
	}
	if a.Cache != nil {
		if err := a.Cache.DeleteIdentity(r.Context(), user.APIKey); err != nil {
			a.Logger.Warn().Err(err).Msg("drop cached identity failed")
		}
	}
	a.json(w, http.StatusOK, map[string]string{"api_key": newKey})
}
