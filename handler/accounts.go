package handler

import (
	"errors"
	"net/http"

	"storefront/models"
	"storefront/store"
)

type createUserReq struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
}

// password prefers the legacy password_hash field when both are sent.
func (req createUserReq) password() string {
	if req.PasswordHash != "" {
		return req.PasswordHash
	}
	return req.Password
}

type loginUserReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
}

type updateUserReq struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	PasswordHash *string `json:"password_hash"`
}

type createAdminReq struct {
	Username string `json:"adminusername"`
	Email    string `json:"adminemail"`
	Password string `json:"adminpassword"`
}

type loginAdminReq struct {
	Email    string `json:"adminemail"`
	Password string `json:"adminpassword"`
}

type updateAdminReq struct {
	Username *string `json:"adminusername"`
	Email    *string `json:"adminemail"`
	Password *string `json:"adminpassword"`
}

func (h *Handler) failLogin(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
		return
	}
	h.fail(w, r, err, "account")
}

// CreateUser handles POST /api/users/create
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req.Username, req.Email, req.password())
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser handles GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser handles PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateUserReq
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), id, models.AccountPatch{
		Username: req.Username,
		Email:    req.Email,
		Password: req.PasswordHash,
	})
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// LoginUser handles POST /api/users/login
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginUserReq
	if !decode(w, r, &req) {
		return
	}
	pw := req.PasswordHash
	if pw == "" {
		pw = req.Password
	}
	u, err := h.svc.LoginUser(r.Context(), req.Email, pw)
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "user": u})
}

// CountUsers handles GET /api/users/total
func (h *Handler) CountUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountUsers(r.Context())
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalUsers": n})
}

// RecentLogins handles GET /api/users/recent-logins?limit=
func (h *Handler) RecentLogins(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.RecentLogins(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateAdmin handles POST /api/admin/create
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminReq
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAdmin(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "admin")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAdmin handles GET /api/admin/{id}
func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAdmin(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "admin")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateAdmin handles PUT /api/admin/{id}
func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateAdminReq
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.UpdateAdmin(r.Context(), id, models.AccountPatch{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err, "admin")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAdmin handles DELETE /api/admin/{id}
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAdmin(r.Context(), id); err != nil {
		h.fail(w, r, err, "admin")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Admin deleted successfully"})
}

// LoginAdmin handles POST /api/admin/login
func (h *Handler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req loginAdminReq
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "admin": a})
}

// CountAdmins handles GET /api/admins/total
func (h *Handler) CountAdmins(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountAdmins(r.Context())
	if err != nil {
		h.fail(w, r, err, "admin")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalAdmins": n})
}
