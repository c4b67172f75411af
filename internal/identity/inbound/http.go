package inbound

import (
	"context"

	"github.com/aruna-labs/identra/internal/identity/usecase"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RegisterVerify(ctx context.Context, in usecase.RegisterVerifyInput) (*usecase.RegisterVerifyOutput, error)
	RegisterResend(ctx context.Context, in usecase.RegisterResendInput) (*usecase.RegisterResendOutput, error)

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	LoginOTP(ctx context.Context, in usecase.LoginOTPInput) (*usecase.LoginOTPOutput, error)
	LoginOTPVerify(ctx context.Context, in usecase.LoginOTPVerifyInput) (*usecase.LoginOTPVerifyOutput, error)
	Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.Login2FAOutput, error)
	LoginOAuth(ctx context.Context, in usecase.LoginOAuthInput) (*usecase.LoginOAuthOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) (*usecase.PasswordForgotOutput, error)
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	CredentialChange(ctx context.Context, in usecase.CredentialChangeInput) (*usecase.CredentialChangeOutput, error)
	CredentialChangeVerify(ctx context.Context, in usecase.CredentialChangeVerifyInput) error

	Logout(ctx context.Context, in usecase.LogoutInput) error
	LogoutAll(ctx context.Context) error

	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration
	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/register/verify", end.RegisterVerify)
	r.POST("/api/v1/identity/register/resend", end.RegisterResend)

	// Authentication
	r.POST("/api/v1/identity/login", end.Login)
	r.POST("/api/v1/identity/login/otp", end.LoginOTP)
	r.POST("/api/v1/identity/login/otp/verify", end.LoginOTPVerify)
	r.POST("/api/v1/identity/login/2fa", end.Login2FA)
	r.POST("/api/v1/identity/login/oauth", end.LoginOAuth)
	r.POST("/api/v1/identity/refresh", end.RefreshToken)
	//
	r.POST("/api/v1/identity/logout", end.Logout)        // need authenticated
	r.POST("/api/v1/identity/logout-all", end.LogoutAll) // need authenticated

	// Password Management
	r.POST("/api/v1/identity/password/forgot", end.PasswordForgot)
	r.POST("/api/v1/identity/password/reset", end.PasswordReset)
	r.POST("/api/v1/identity/password/change", end.PasswordChange) // need authenticated

	// Credential Management (need authenticated)
	r.POST("/api/v1/identity/credential/change", end.CredentialChange)
	r.POST("/api/v1/identity/credential/change/verify", end.CredentialChangeVerify)

	// MFA (need authenticated)
	r.POST("/api/v1/identity/mfa/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/identity/mfa/totp/confirm", end.TOTPConfirm)

	// User Profile (need authenticated)
	r.GET("/api/v1/identity/profile", end.Profile)
	r.PUT("/api/v1/identity/profile", end.ProfileUpdate)
}
