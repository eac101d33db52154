package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// userView is a user as clients see it: no password hash, ever.
type userView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	NormalizedEmail string     `json:"normalizedEmail"`
	FullName        string     `json:"fullName"`
	Role            authz.Role `json:"role"`
	HasPassword     bool       `json:"hasPassword"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	IsDeleted       bool       `json:"isDeleted"`
}

func viewUser(u *model.User) userView {
	return userView{
		ID:              u.ID,
		Email:           u.Email,
		NormalizedEmail: u.NormalizedEmail,
		FullName:        u.FullName,
		Role:            u.Role,
		HasPassword:     u.PasswordHash != "",
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		IsDeleted:       u.IsDeleted,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type replaceUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type patchUserRequest struct {
	Email     *string `json:"email"`
	FullName  *string `json:"fullName"`
	Role      *string `json:"role"`
	IsDeleted *bool   `json:"isDeleted"`
}

// HandleList → GET /api/users (admin)
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, viewUser(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMe → GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewUser(u))
}

// HandlePatchMe → PATCH /api/users/me
func (h *UserHandler) HandlePatchMe(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, auth.IdentityFromContext(r.Context()).SubjectID)
}

// HandleGet → GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewUser(u))
}

// HandleCreate → POST /api/users (admin)
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	u, err := h.users.Create(r.Context(), auth.IdentityFromContext(r.Context()), service.CreateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewUser(u))
}

// HandleReplace → PUT /api/users/{id} (admin)
func (h *UserHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req replaceUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.users.Replace(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"),
		service.ReplaceUserInput{Email: req.Email, FullName: req.FullName, Role: req.Role})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch → PATCH /api/users/{id}
func (h *UserHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, pathParam(r, "id"))
}

func (h *UserHandler) patch(w http.ResponseWriter, r *http.Request, userID string) {
	var req patchUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.users.Patch(r.Context(), auth.IdentityFromContext(r.Context()), userID, service.PatchUserInput{
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      req.Role,
		IsDeleted: req.IsDeleted,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete → DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
