package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crm-api/internal/cache"
	"crm-api/internal/config"
	"crm-api/internal/event"
	"crm-api/internal/model"
	"crm-api/internal/repository"
	"crm-api/internal/token"
	"crm-api/internal/utils"
	"crm-api/internal/validation"
)

// AuthHandler bundles dependencies for the session lifecycle endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Svc    *token.Service
	Cache  VersionCache
	Events event.Sink
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, svc *token.Service, cs VersionCache, ev event.Sink) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Svc: svc, Cache: cs, Events: ev}
}

// ----- DTOs -----

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	NewPassword string `json:"newPassword"`
}

type tokenPairResp struct {
	User         *model.SafeUser `json:"user,omitempty"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// issuePair mints an access+refresh pair and persists the refresh token
// record with the request's IP and device descriptor.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, u model.User) (tokenPairResp, error) {
	access, err := h.Svc.IssueAccess(u.ID, u.Email, u.RoleID)
	if err != nil {
		return tokenPairResp{}, err
	}
	refresh, err := h.Svc.IssueRefresh(u.ID, u.Email, u.RoleID)
	if err != nil {
		return tokenPairResp{}, err
	}
	device := c.Request().UserAgent()
	if device == "" {
		device = "unknown"
	}
	exp := time.Now().UTC().Add(h.Svc.RefreshTTL)
	if err := h.Tokens.StoreRefresh(ctx, refresh, u.ID, c.RealIP(), device, exp); err != nil {
		return tokenPairResp{}, err
	}
	return tokenPairResp{AccessToken: access, RefreshToken: refresh}, nil
}

// SignIn: verify credentials and open a session.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid Body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email And Password Are Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User Not Exist")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid Credentials")
	}
	if u.Status != model.StatusActive {
		return fail(c, http.StatusForbidden, "Your Account Is Not Active.")
	}

	pair, err := h.issuePair(ctx, c, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	safe := u.Sanitize()
	pair.User = &safe
	return ok(c, "Signed In Successfully", pair)
}

// Refresh: rotate a refresh token into a new access+refresh pair.
// The reuse check runs before the validity lookup so presenting an
// already-rotated token is distinguishable from one that never existed.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "Refresh Token Is Required")
	}
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reused, err := h.Tokens.IsReused(ctx, raw)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if reused {
		ev := event.Event{Type: event.TypeReuseDetected, Detail: c.RealIP(), At: time.Now().UTC()}
		// Unsigned decode is fine here: the event only needs a hint of
		// whose session was replayed, not an authentication decision.
		if claims, derr := token.DecodeUnsafe(raw); derr == nil {
			ev.UserID = claims.UserID
		}
		h.Events.Publish(ctx, ev)
		return fail(c, http.StatusForbidden, "Token Reuse Detected. Please Login Again.")
	}

	if _, err := h.Tokens.GetValid(ctx, raw); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusForbidden, "Token Invalid Or Blacklisted")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}

	claims, err := h.Svc.VerifyRefresh(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return fail(c, http.StatusUnauthorized, "Expired Refresh Token")
		}
		return fail(c, http.StatusUnauthorized, "Invalid Refresh Token")
	}

	// Rotation: the presented token is permanently invalidated before a
	// replacement pair is issued under the same user claims.
	if err := h.Tokens.Invalidate(ctx, raw); err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	pair, err := h.issuePair(ctx, c, model.User{ID: claims.UserID, Email: claims.Email, RoleID: claims.RoleID})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	return ok(c, "Token Refreshed Successfully", pair)
}

// Logout: invalidate the refresh token and blacklist the access token
// until its natural expiry. Safe to call twice with the same tokens.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	if strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "Refresh Token Is Required")
	}
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fail(c, http.StatusBadRequest, "Access Token Is Required In Authorization Header")
	}
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Invalidate(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}

	// The blacklist row needs the token's own expiry even though the
	// token is still valid right now, so decode without verifying.
	claims, err := token.DecodeUnsafe(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return fail(c, http.StatusBadRequest, "Invalid Access Token")
	}
	if err := h.Tokens.Blacklist(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	return ok(c, "Logged Out Successfully", nil)
}

// ChangePassword: validate the policy, re-hash and persist.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid Body")
	}
	if errs := validation.Password(req.NewPassword); len(errs) > 0 {
		return failValidation(c, "Invalid Password", errs)
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User Not Found.")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	h.Cache.Bump(ctx, cache.EntityUsers)
	return ok(c, "Password Updated Successfully.", nil)
}
