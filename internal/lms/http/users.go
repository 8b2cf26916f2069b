package http

import (
	"net/http"

	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/pkg/httpx"
	"github.com/aussiebroadwan/lms/pkg/lmssdk"
)

// UsersHandler serves profile and admin user management.
type UsersHandler struct {
	Accounts *service.AccountService
}

// HandleMe returns the caller's profile.
//
//	@Summary		Current user
//	@Tags			Users
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	lmssdk.UserResponse
//	@Failure		401	{object}	httpx.ErrorBody	"Not logged in"
//	@Failure		404	{object}	httpx.ErrorBody	"Account no longer exists"
//	@Router			/api/v1/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	user, err := h.Accounts.Me(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.UserResponse{Success: true, User: toSDKUser(user)})
}

// HandleUpdateInfo changes the caller's name and/or email.
//
//	@Summary		Update profile
//	@Tags			Users
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.UpdateInfoRequest	true	"Fields to change"
//	@Success		200		{object}	lmssdk.UserResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid email"
//	@Failure		409		{object}	httpx.ErrorBody	"Email already taken"
//	@Router			/api/v1/update-user-info [put].
func (h *UsersHandler) HandleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req lmssdk.UpdateInfoRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	user, err := h.Accounts.UpdateInfo(r.Context(), id.UserID, service.ProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.UserResponse{Success: true, User: toSDKUser(user)})
}

// HandleUpdatePassword changes the caller's password.
//
//	@Summary		Change password
//	@Tags			Users
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.UpdatePasswordRequest	true	"Old and new password"
//	@Success		200		{object}	lmssdk.UserResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Weak password or account without password"
//	@Failure		401		{object}	httpx.ErrorBody	"Wrong old password"
//	@Router			/api/v1/update-password [put].
func (h *UsersHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req lmssdk.UpdatePasswordRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	user, err := h.Accounts.UpdatePassword(r.Context(), id.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.UserResponse{Success: true, User: toSDKUser(user)})
}

// HandleList returns every account, newest first.
//
//	@Summary		List users
//	@Tags			Admin
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	lmssdk.UsersResponse
//	@Failure		403	{object}	httpx.ErrorBody	"Caller is not an admin"
//	@Router			/api/v1/get-users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.UsersResponse{Success: true, Users: toSDKUsers(users)})
}

// HandleUpdateRole assigns a role.
//
//	@Summary		Change a user's role
//	@Tags			Admin
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.UpdateRoleRequest	true	"User id and role (user or admin)"
//	@Success		200		{object}	lmssdk.UserResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Unknown role"
//	@Failure		403		{object}	httpx.ErrorBody	"Caller is not an admin"
//	@Failure		404		{object}	httpx.ErrorBody	"User not found"
//	@Router			/api/v1/update-user [put].
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req lmssdk.UpdateRoleRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	user, err := h.Accounts.UpdateRole(r.Context(), req.ID, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.UserResponse{Success: true, User: toSDKUser(user)})
}

// HandleDelete removes an account and ends its session.
//
//	@Summary		Delete a user
//	@Tags			Admin
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	lmssdk.MessageResponse
//	@Failure		403	{object}	httpx.ErrorBody	"Caller is not an admin"
//	@Failure		404	{object}	httpx.ErrorBody	"User not found"
//	@Router			/api/v1/delete-user/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lmssdk.MessageResponse{
		Success: true,
		Message: "User deleted successfully",
	})
}
