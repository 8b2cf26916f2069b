package http

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/pkg/httpx"
	"github.com/aussiebroadwan/lms/pkg/lmssdk"
)

// AuthHandler serves registration, activation and the session endpoints.
type AuthHandler struct {
	Accounts   *service.AccountService
	Activation *service.ActivationService
	Sessions   *service.SessionManager

	// SecureCookies marks the session cookies Secure (production only).
	SecureCookies bool
}

// setSessionCookies writes both token cookies with Max-Age equal to the
// token lifetimes.
func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair domain.TokenPair) {
	tokens := h.Sessions.Tokens
	httpx.SetCookie(w, AccessTokenCookie, pair.AccessToken, tokens.AccessTTL(), h.SecureCookies)
	httpx.SetCookie(w, RefreshTokenCookie, pair.RefreshToken, tokens.RefreshTTL(), h.SecureCookies)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, user domain.User, pair domain.TokenPair) {
	h.setSessionCookies(w, pair)
	httpx.WriteJSON(w, http.StatusOK, lmssdk.SessionResponse{
		Success:     true,
		User:        toSDKUser(user),
		AccessToken: pair.AccessToken,
	})
}

// HandleRegister starts a registration.
//
//	@Summary		Register a new account
//	@Description	Emails a 4-digit activation code and returns the activation token to send back with it.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.RegisterRequest		true	"Name, email and password"
//	@Success		201		{object}	lmssdk.RegisterResponse		"Activation token"
//	@Failure		400		{object}	httpx.ErrorBody				"Missing or invalid fields"
//	@Failure		409		{object}	httpx.ErrorBody				"Email already taken"
//	@Failure		429		{object}	httpx.ErrorBody				"Rate limit exceeded"
//	@Router			/api/v1/registration [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req lmssdk.RegisterRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	token, err := h.Accounts.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, lmssdk.RegisterResponse{
		Success:         true,
		Message:         fmt.Sprintf("Please check your email: %s to activate your account", service.NormaliseEmail(req.Email)),
		ActivationToken: token,
	})
}

// HandleActivate completes a registration.
//
//	@Summary		Activate an account
//	@Description	Exchanges the activation token and the emailed code for a permanent account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.ActivateRequest	true	"Activation token and code"
//	@Success		201		{object}	lmssdk.MessageResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Wrong code or malformed request"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid or expired activation token"
//	@Failure		409		{object}	httpx.ErrorBody	"Email already registered"
//	@Router			/api/v1/activate-user [post].
func (h *AuthHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	var req lmssdk.ActivateRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}
	if req.ActivationToken == "" || req.ActivationCode == "" {
		writeError(w, r, service.ErrInvalidRequest)
		return
	}

	if _, err := h.Activation.Activate(r.Context(), req.ActivationToken, req.ActivationCode); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, lmssdk.MessageResponse{
		Success: true,
		Message: "Account activated successfully",
	})
}

// HandleLogin authenticates with email and password.
//
//	@Summary		Log in
//	@Description	Sets the access_token and refresh_token cookies and returns the user.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.LoginRequest		true	"Email and password"
//	@Success		200		{object}	lmssdk.SessionResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Missing fields"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid email or password"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limit exceeded"
//	@Router			/api/v1/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req lmssdk.LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	user, pair, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeSession(w, user, pair)
}

// HandleSocialAuth signs in with an identity asserted by a third-party
// provider, creating the account on first use.
//
//	@Summary		Social sign-in
//	@Description	Only registered when SOCIAL_AUTH_ENABLED is set. Accounts with a password cannot be signed in this way.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lmssdk.SocialAuthRequest	true	"Email, name and avatar URL"
//	@Success		200		{object}	lmssdk.SessionResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Missing or invalid fields"
//	@Failure		401		{object}	httpx.ErrorBody	"Email belongs to a password account"
//	@Router			/api/v1/social-auth [post].
func (h *AuthHandler) HandleSocialAuth(w http.ResponseWriter, r *http.Request) {
	var req lmssdk.SocialAuthRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		lmssdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return
	}

	user, pair, err := h.Accounts.SocialAuth(r.Context(), service.SocialAuthInput{
		Email:  req.Email,
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeSession(w, user, pair)
}

// HandleRefresh trades the refresh cookie for a new token pair.
//
//	@Summary		Refresh the session
//	@Description	Requires a live session; a refresh token whose session was ended is rejected with session_not_found.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	lmssdk.SessionResponse
//	@Failure		401	{object}	httpx.ErrorBody	"invalid_token, token_expired or session_not_found"
//	@Router			/api/v1/refresh [get].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := httpx.TokenFromRequest(r, RefreshTokenCookie)

	pair, user, err := h.Sessions.RenewSession(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeSession(w, user, pair)
}

// HandleLogout ends the session and expires both cookies.
//
//	@Summary		Log out
//	@Tags			Auth
//	@Security		CookieAuth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	lmssdk.MessageResponse
//	@Failure		401	{object}	httpx.ErrorBody	"Not logged in"
//	@Router			/api/v1/logout [get].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := h.Sessions.EndSession(r.Context(), id.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.ClearCookie(w, AccessTokenCookie, h.SecureCookies)
	httpx.ClearCookie(w, RefreshTokenCookie, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, lmssdk.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}
