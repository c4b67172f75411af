package inbound

import (
	"github.com/aruna-labs/identra/internal/identity/usecase"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for registration, authentication,
// credentials and profile workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register starts a registration and sends a verification code.
// @Summary Register account
// @Description Creates an unverified account and sends a one-time code to the email or phone identifier.
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 200 {object} router.successResponse{data=RegisterResponse} "Verification code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Identifier already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Identifier: req.Identifier,
		FullName:   req.FullName,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{Identifier: resp.Identifier, ExpiresAt: resp.ExpiresAt}, nil
}

// RegisterVerify confirms the registration code and signs the user in.
// @Summary Verify registration
// @Description Confirms the code sent at registration, activates the account and returns tokens.
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body RegisterVerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=TokenPairResponse} "Account verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Invalid or expired code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/register/verify [post]
func (h *HTTPEndpoint) RegisterVerify(r *router.Request) (any, error) {
	var req RegisterVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterVerify(r.Context(), usecase.RegisterVerifyInput{
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// RegisterResend re-sends the registration code.
// @Summary Resend registration code
// @Description Supersedes the previous code and sends a fresh one to the pending identifier.
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body RegisterResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=OTPSentResponse} "Verification code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No pending registration"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/register/resend [post]
func (h *HTTPEndpoint) RegisterResend(r *router.Request) (any, error) {
	var req RegisterResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterResend(r.Context(), usecase.RegisterResendInput{Identifier: req.Identifier})
	if err != nil {
		return nil, err
	}

	return OTPSentResponse{Identifier: resp.Identifier, ExpiresAt: resp.ExpiresAt}, nil
}

// Login authenticates a user and returns tokens or an MFA challenge.
// @Summary Authenticate user
// @Description Validates credentials and returns access/refresh tokens. If a second factor is enrolled, a challenge is returned instead.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		MfaRequired:    resp.ChallengeToken != "",
		ChallengeToken: resp.ChallengeToken,
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
	}, nil
}

// LoginOTP sends a one-time code for a passwordless login.
// @Summary Request login code
// @Description Sends a one-time code to the identifier. The response is the same whether or not an account exists.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginOTPRequest true "Login code payload"
// @Success 200 {object} router.successResponse{data=OTPSentResponse} "Verification code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/otp [post]
func (h *HTTPEndpoint) LoginOTP(r *router.Request) (any, error) {
	var req LoginOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginOTP(r.Context(), usecase.LoginOTPInput{Identifier: req.Identifier})
	if err != nil {
		return nil, err
	}

	return OTPSentResponse{Identifier: resp.Identifier, ExpiresAt: resp.ExpiresAt}, nil
}

// LoginOTPVerify completes a passwordless login.
// @Summary Verify login code
// @Description Confirms the one-time code and returns access/refresh tokens.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginOTPVerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=TokenPairResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Invalid or expired code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/otp/verify [post]
func (h *HTTPEndpoint) LoginOTPVerify(r *router.Request) (any, error) {
	var req LoginOTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginOTPVerify(r.Context(), usecase.LoginOTPVerifyInput{
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// Login2FA completes a 2FA login challenge and issues tokens.
// @Summary Complete 2FA login
// @Description Verifies the authenticator code for a login challenge and returns access/refresh tokens.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body Login2FARequest true "2FA login payload"
// @Success 200 {object} router.successResponse{data=TokenPairResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid challenge or code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/2fa [post]
func (h *HTTPEndpoint) Login2FA(r *router.Request) (any, error) {
	var req Login2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login2FA(r.Context(), usecase.Login2FAInput{
		ChallengeToken: req.ChallengeToken,
		Code:           req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// LoginOAuth signs a user in with an external provider.
// @Summary Authenticate via OAuth provider
// @Description Exchanges an authorization code with the provider and returns access/refresh tokens.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginOAuthRequest true "OAuth login payload"
// @Success 200 {object} router.successResponse{data=TokenPairResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Provider sign-in failed"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/oauth [post]
func (h *HTTPEndpoint) LoginOAuth(r *router.Request) (any, error) {
	var req LoginOAuthRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginOAuth(r.Context(), usecase.LoginOAuthInput{
		Provider: req.Provider,
		Code:     req.Code,
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// RefreshToken issues a new token pair using a refresh token.
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new access/refresh token pair. The presented token is retired.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.successResponse{data=TokenPairResponse} "Token refresh result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// PasswordForgot sends a password reset code.
// @Summary Request password reset
// @Description Sends a one-time reset code. The response is the same whether or not an account exists.
// @Tags Identity, Password
// @Accept json
// @Produce json
// @Param request body PasswordForgotRequest true "Password forgot payload"
// @Success 200 {object} router.successResponse{data=OTPSentResponse} "Reset code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/password/forgot [post]
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{Identifier: req.Identifier})
	if err != nil {
		return nil, err
	}

	return OTPSentResponse{Identifier: resp.Identifier, ExpiresAt: resp.ExpiresAt}, nil
}

// PasswordReset sets a new password using a reset code.
// @Summary Reset password
// @Description Confirms the reset code, stores the new password and revokes all sessions.
// @Tags Identity, Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Password reset payload"
// @Success 200 {object} router.successResponse{data=PasswordResetResponse} "Password reset"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Invalid or expired code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/password/reset [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Identifier: req.Identifier,
		Code:       req.Code,
		Password:   req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return PasswordResetResponse{}, nil
}

// PasswordChange replaces the authenticated user's password.
// @Summary Change password
// @Description Verifies the current password, stores the new one and revokes all sessions.
// @Tags Identity, Password
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PasswordChangeRequest true "Password change payload"
// @Success 200 {object} router.successResponse{data=PasswordChangeResponse} "Password changed"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Current password is incorrect"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/password/change [post]
func (h *HTTPEndpoint) PasswordChange(r *router.Request) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		OldPassword: req.CurrentPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return PasswordChangeResponse{}, nil
}

// CredentialChange starts changing the sign-in identifier.
// @Summary Change sign-in identifier
// @Description Sends a one-time code to the new email or phone to prove the user controls it.
// @Tags Identity, Credential
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CredentialChangeRequest true "Credential change payload"
// @Success 200 {object} router.successResponse{data=CredentialChangeResponse} "Verification code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Current password is incorrect"
// @Failure 409 {object} router.errorResponse "Identifier already registered"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/credential/change [post]
func (h *HTTPEndpoint) CredentialChange(r *router.Request) (any, error) {
	var req CredentialChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CredentialChange(r.Context(), usecase.CredentialChangeInput{
		NewIdentifier: req.NewIdentifier,
		Password:      req.Password,
	})
	if err != nil {
		return nil, err
	}

	return CredentialChangeResponse{Identifier: resp.Identifier, ExpiresAt: resp.ExpiresAt}, nil
}

// CredentialChangeVerify applies the identifier swap.
// @Summary Verify identifier change
// @Description Confirms the code sent to the new identifier and swaps it in.
// @Tags Identity, Credential
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CredentialChangeVerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=CredentialChangeVerifyResponse} "Identifier updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No pending change"
// @Failure 422 {object} router.errorResponse "Invalid or expired code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/credential/change/verify [post]
func (h *HTTPEndpoint) CredentialChangeVerify(r *router.Request) (any, error) {
	var req CredentialChangeVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.CredentialChangeVerify(r.Context(), usecase.CredentialChangeVerifyInput{
		NewIdentifier: req.NewIdentifier,
		Code:          req.Code,
	})
	if err != nil {
		return nil, err
	}

	return CredentialChangeVerifyResponse{}, nil
}

// Logout revokes the presented refresh session.
// @Summary Sign out
// @Description Revokes the refresh session. The access token stays valid until it expires.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest true "Logout payload"
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Signed out"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// LogoutAll revokes every refresh session of the user.
// @Summary Sign out everywhere
// @Description Revokes all of the user's refresh sessions.
// @Tags Identity, Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Signed out everywhere"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/logout-all [post]
func (h *HTTPEndpoint) LogoutAll(r *router.Request) (any, error) {
	if err := h.uc.LogoutAll(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// TOTPSetup enrolls an authenticator app.
// @Summary Set up authenticator app
// @Description Generates a secret and provisioning URI for a new authenticator factor.
// @Tags Identity, MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse} "Enrollment data"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 409 {object} router.errorResponse "An authenticator is already enrolled"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/mfa/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{Secret: resp.Secret, URI: resp.URI}, nil
}

// TOTPConfirm activates the pending authenticator factor.
// @Summary Confirm authenticator app
// @Description Verifies a code from the authenticator app and activates the factor.
// @Tags Identity, MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TOTPConfirmRequest true "Confirmation payload"
// @Success 200 {object} router.successResponse{data=TOTPConfirmResponse} "Authenticator enabled"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "No pending enrollment"
// @Failure 422 {object} router.errorResponse "Invalid authenticator code"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/mfa/totp/confirm [post]
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return TOTPConfirmResponse{}, nil
}

// Profile returns the authenticated user's profile.
// @Summary Get profile
// @Description Returns the profile with masked email and phone.
// @Tags Identity, Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		Phone:     resp.Phone,
		FullName:  resp.FullName,
		AvatarURL: resp.AvatarURL,
		Status:    resp.Status,
		UpdatedAt: resp.UpdatedAt,
	}, nil
}

// ProfileUpdate changes the profile display fields.
// @Summary Update profile
// @Description Updates the full name and avatar URL.
// @Tags Identity, Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Profile update payload"
// @Success 200 {object} router.successResponse{data=ProfileUpdateResponse} "Profile updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/profile [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return nil, err
	}

	return ProfileUpdateResponse{}, nil
}
