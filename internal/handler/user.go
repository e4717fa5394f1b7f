package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-api/internal/cache"
	"crm-api/internal/config"
	"crm-api/internal/model"
	"crm-api/internal/queue"
	"crm-api/internal/repository"
	"crm-api/internal/service"
	"crm-api/internal/utils"
	"crm-api/internal/validation"
)

// Enqueuer is the slice of the primary image queue the mutation path
// needs: accept a job, return once it is durably queued.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// UserHandler bundles dependencies for user CRUD plus the image-upload
// entry point of the pipeline.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Roles *repository.RoleRepo
	Cache VersionCache
	Queue Enqueuer
	Host  service.ImageHost
	Log   *zap.Logger
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, r *repository.RoleRepo, cs VersionCache, q Enqueuer, host service.ImageHost, log *zap.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Roles: r, Cache: cs, Queue: q, Host: host, Log: log}
}

// userPage is the cached shape of a paginated user listing.
type userPage struct {
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
	Total      int              `json:"total"`
	Users      []model.SafeUser `json:"users"`
}

// GetAllUsers: paginated, searchable, sortable listing served from the
// version-counter cache when possible.
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))
	sortBy := strings.TrimSpace(c.QueryParam("sort"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key, kerr := h.Cache.ListKey(ctx, cache.EntityUsers, page, limit, search, sortBy)
	if kerr != nil {
		key = ""
	}
	var cached userPage
	if h.Cache.GetJSON(ctx, key, &cached) {
		return ok(c, "Users Are Coming From Cache", cached)
	}

	users, total, err := h.Users.List(ctx, page, limit, search, sortBy)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	result := userPage{
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
		Total:      total,
		Users:      users,
	}
	h.Cache.SetJSON(ctx, key, result, cache.DefaultTTL)

	msg := "Users Fetched Successfully"
	if len(users) == 0 {
		msg = "Ask Admin To Create Users"
	}
	return ok(c, msg, result)
}

// GetUser: single sanitized user by id. The credential never leaves the
// repository layer.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User Not Found")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	return ok(c, "User Fetched Successfully", u.Sanitize())
}

// readImagePart pulls the optional profileImage multipart part. A nil
// slice with nil error means no image accompanied the request.
func readImagePart(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("profileImage")
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// parseRoleID resolves the optional roleId form field; present values
// must reference an existing role. A non-empty msg is the 400 response
// for a value that parses but matches nothing.
func (h *UserHandler) parseRoleID(ctx context.Context, c echo.Context) (id *uint64, msg string, err error) {
	raw := strings.TrimSpace(c.FormValue("roleId"))
	if raw == "" {
		return nil, "", nil
	}
	n, perr := strconv.ParseUint(raw, 10, 64)
	if perr != nil {
		return nil, fmt.Sprintf("Invalid roleId: Role With Id %s Does Not Exist.", raw), nil
	}
	exists, err := h.Roles.Exists(ctx, n)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, fmt.Sprintf("Invalid roleId: Role With Id %d Does Not Exist.", n), nil
	}
	return &n, "", nil
}

// AddUser: create a user; an attached image is accepted immediately and
// handed to the pipeline, so the response never waits on the host.
func (h *UserHandler) AddUser(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	phone := strings.TrimSpace(c.FormValue("phoneNumber"))
	status := strings.ToLower(strings.TrimSpace(c.FormValue("status")))

	var errs []string
	errs = append(errs, validation.Name(name)...)
	errs = append(errs, validation.Email(email)...)
	errs = append(errs, validation.Password(password)...)
	errs = append(errs, validation.Phone(phone)...)
	if len(errs) > 0 {
		return failValidation(c, "Invalid User Input", errs)
	}
	if status == "" {
		status = model.StatusActive
	}
	if status != model.StatusActive && status != model.StatusInactive {
		return fail(c, http.StatusBadRequest, "Invalid Status. Allowed Values Are: active, inactive.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Users.EmailExists(ctx, email)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if exists {
		return fail(c, http.StatusBadRequest, "Email Already Exists. Please Login.")
	}

	roleID, rmsg, rerr := h.parseRoleID(ctx, c)
	if rerr != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if rmsg != "" {
		return fail(c, http.StatusBadRequest, rmsg)
	}

	var dob *time.Time
	if raw := strings.TrimSpace(c.FormValue("dateOfBirth")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid Date Of Birth. Expected YYYY-MM-DD.")
		}
		dob = &d
	}

	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}

	id, err := h.Users.Create(ctx, model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  phone,
		RoleID:       roleID,
		Status:       status,
		ProfileImage: "",
		DateOfBirth:  dob,
		RegisterDate: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, "Email Already Exists. Please Login.")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}

	img, err := readImagePart(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unreadable Image Upload")
	}
	if len(img) > 0 {
		if err := h.Queue.Enqueue(ctx, queue.Job{UserID: id, Image: img}); err != nil {
			// The user row exists either way; the image can be re-uploaded.
			h.Log.Error("enqueue image job failed", zap.Uint64("user_id", id), zap.Error(err))
		}
	}

	h.Cache.Bump(ctx, cache.EntityUsers)
	return ok(c, "User Created Successfully", nil)
}

// UpdateUser: partial update; only provided fields are touched. A new
// image goes through the pipeline and the replaced hosted asset is
// cleaned up without blocking the response.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Users.Exists(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if !exists {
		return fail(c, http.StatusNotFound, "User Not Found.")
	}

	fields := map[string]any{}
	var errs []string
	if name := strings.TrimSpace(c.FormValue("name")); name != "" {
		errs = append(errs, validation.Name(name)...)
		fields["name"] = name
	}
	if email := strings.TrimSpace(c.FormValue("email")); email != "" {
		errs = append(errs, validation.Email(email)...)
		fields["email"] = strings.ToLower(email)
	}
	if password := c.FormValue("password"); password != "" {
		errs = append(errs, validation.Password(password)...)
		if len(errs) == 0 {
			hash, herr := utils.HashPassword(password, h.Cfg.BcryptCost)
			if herr != nil {
				return fail(c, http.StatusInternalServerError, "Internal Server Error")
			}
			fields["password"] = hash
		}
	}
	if phone := strings.TrimSpace(c.FormValue("phoneNumber")); phone != "" {
		errs = append(errs, validation.Phone(phone)...)
		fields["phone_number"] = phone
	}
	if status := strings.ToLower(strings.TrimSpace(c.FormValue("status"))); status != "" {
		if status != model.StatusActive && status != model.StatusInactive {
			return fail(c, http.StatusBadRequest, "Invalid Status. Allowed Values Are: active, inactive.")
		}
		fields["status"] = status
	}
	if len(errs) > 0 {
		return failValidation(c, "Invalid User Input", errs)
	}

	if raw := strings.TrimSpace(c.FormValue("roleId")); raw != "" {
		roleID, rmsg, rerr := h.parseRoleID(ctx, c)
		if rerr != nil {
			return fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		if rmsg != "" {
			return fail(c, http.StatusBadRequest, rmsg)
		}
		fields["role_id"] = roleID
	}

	img, err := readImagePart(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unreadable Image Upload")
	}
	if len(fields) == 0 && len(img) == 0 {
		return fail(c, http.StatusBadRequest, "No Fields Provided For Update")
	}

	if len(img) > 0 {
		oldURL, uerr := h.Users.ProfileImage(ctx, id)
		if uerr != nil && !errors.Is(uerr, repository.ErrNotFound) {
			return fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		if err := h.Queue.Enqueue(ctx, queue.Job{UserID: id, Image: img}); err != nil {
			h.Log.Error("enqueue image job failed", zap.Uint64("user_id", id), zap.Error(err))
		} else if oldURL != "" {
			h.destroyOldImage(oldURL, id)
		}
	}

	if len(fields) > 0 {
		if err := h.Users.Update(ctx, id, fields); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return fail(c, http.StatusNotFound, "User Not Found.")
			case errors.Is(err, repository.ErrEmailExists):
				return fail(c, http.StatusBadRequest, "Email Already Exists. Please Login.")
			}
			return fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
	}

	h.Cache.Bump(ctx, cache.EntityUsers)
	return ok(c, "User Updated Successfully", nil)
}

// destroyOldImage removes a replaced asset from the host. Fire and
// forget: failure leaves an orphaned image behind, which is logged and
// accepted rather than surfaced to the client.
func (h *UserHandler) destroyOldImage(oldURL string, userID uint64) {
	publicID := service.PublicIDFromURL(oldURL)
	if publicID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Host.Destroy(ctx, publicID); err != nil {
			h.Log.Warn("old profile image cleanup failed",
				zap.Uint64("user_id", userID), zap.String("public_id", publicID), zap.Error(err))
		}
	}()
}

// DeleteUser: remove a user row.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error: ID Is Required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User Not Found With The Given ID")
		}
		return fail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	h.Cache.Bump(ctx, cache.EntityUsers)
	return ok(c, "User Deleted Successfully.", nil)
}
