package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
	logger  *slog.Logger
}

func NewUserHandler(service ports.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	user, err := h.service.GetByID(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers godoc
// @Summary      Lists every user
// @Tags         admin
// @Produce      json
// @Success      200
// @Failure      401
// @Failure      403
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// ChangeRole godoc
// @Summary      Promotes or demotes a user
// @Description  ADMIN also grants superuser; GENERAL and OPS clear it.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path  string       true  "User ID"
// @Param        role  body  roleRequest  true  "GENERAL, OPS or ADMIN"
// @Success      200
// @Failure      400
// @Failure      403
// @Failure      404
// @Router       /admin/users/{id}/role [patch]
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, domain.ErrUserNotFound)
		return
	}
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.ChangeRole(r.Context(), IdentityFrom(r.Context()), id, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      Deletes a user
// @Description  Soft delete. The user can no longer log in and their refresh tokens are revoked.
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200
// @Failure      400
// @Failure      403
// @Failure      404
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, domain.ErrUserNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), IdentityFrom(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("user deleted", "user_id", id, "by", IdentityFrom(r.Context()).UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
