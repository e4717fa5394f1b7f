package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crm-api/internal/cache"
	"crm-api/internal/model"
	"crm-api/internal/repository"
	"crm-api/internal/validation"
)

// RoleHandler bundles dependencies for role CRUD.
type RoleHandler struct {
	Roles *repository.RoleRepo
	Cache VersionCache
}

func NewRoleHandler(r *repository.RoleRepo, cs VersionCache) *RoleHandler {
	return &RoleHandler{Roles: r, Cache: cs}
}

type roleReq struct {
	RoleType string `json:"roleType"`
}

// rolePage is the cached shape of a paginated role listing.
type rolePage struct {
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
	Roles      []model.Role `json:"roles"`
}

// GetRoles: paginated, searchable listing served from the
// version-counter cache when possible.
func (h *RoleHandler) GetRoles(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key, kerr := h.Cache.ListKey(ctx, cache.EntityRoles, page, limit, search, "")
	if kerr != nil {
		key = "" // cache unreachable: fall through to the database
	}
	var cached rolePage
	if h.Cache.GetJSON(ctx, key, &cached) {
		return ok(c, "Roles Fetched Successfully", cached)
	}

	roles, total, err := h.Roles.List(ctx, page, limit, search)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	result := rolePage{
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
		Total:      total,
		Roles:      roles,
	}
	h.Cache.SetJSON(ctx, key, result, cache.DefaultTTL)

	msg := "Roles Fetched Successfully"
	if len(roles) == 0 {
		msg = "No Roles Found"
	}
	return ok(c, msg, result)
}

// GetRole: single role by id.
func (h *RoleHandler) GetRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No Role Found")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	return ok(c, "Role Fetched Successfully", role)
}

// AddRole: upsert a role by its unique name.
func (h *RoleHandler) AddRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid Body")
	}
	if errs := validation.RoleType(req.RoleType); len(errs) > 0 {
		return failValidation(c, "Invalid Role Input", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Upsert(ctx, req.RoleType); err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	h.Cache.Bump(ctx, cache.EntityRoles)
	return ok(c, "Roles Added Successfully", nil)
}

// UpdateRole: rename a role.
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid Body")
	}
	if errs := validation.RoleType(req.RoleType); len(errs) > 0 {
		return failValidation(c, "Invalid Role Input", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Update(ctx, id, req.RoleType); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No Role Found")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	h.Cache.Bump(ctx, cache.EntityRoles)
	return ok(c, "Role Updated Successfully", nil)
}

// DeleteRole: remove a role; dependent users are detached by the
// ON DELETE SET NULL constraint, and the response reports how many.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	affected, err := h.Roles.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No Role Found")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	h.Cache.Bump(ctx, cache.EntityRoles)
	return ok(c, fmt.Sprintf("Role Deleted Successfully. %d User(s) Now Have No Role.", affected), nil)
}
