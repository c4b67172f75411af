package inbound

import "time"

type RegisterRequest struct {
	Identifier string `json:"identifier"`
	FullName   string `json:"full_name"`
	Password   string `json:"password"`
}

type RegisterResponse struct {
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (RegisterResponse) Message() string {
	return "Registration started. Enter the verification code we sent you."
}

type RegisterVerifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type RegisterResendRequest struct {
	Identifier string `json:"identifier"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	MfaRequired    bool   `json:"mfa_required,omitempty"`
	ChallengeToken string `json:"challenge_token,omitempty"`
	AccessToken    string `json:"access_token,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
}

type LoginOTPRequest struct {
	Identifier string `json:"identifier"`
}

type OTPSentResponse struct {
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (OTPSentResponse) Message() string {
	return "If an account with that identifier exists, we have sent a verification code."
}

type LoginOTPVerifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type Login2FARequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

type LoginOAuthRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordForgotRequest struct {
	Identifier string `json:"identifier"`
}

type PasswordResetRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password has been reset. Please sign in again."
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type PasswordChangeResponse struct{}

func (PasswordChangeResponse) Message() string {
	return "Password changed. Other sessions have been signed out."
}

type CredentialChangeRequest struct {
	NewIdentifier string `json:"new_identifier"`
	Password      string `json:"password"`
}

type CredentialChangeResponse struct {
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (CredentialChangeResponse) Message() string {
	return "Enter the verification code we sent to your new identifier."
}

type CredentialChangeVerifyRequest struct {
	NewIdentifier string `json:"new_identifier"`
	Code          string `json:"code"`
}

type CredentialChangeVerifyResponse struct{}

func (CredentialChangeVerifyResponse) Message() string {
	return "Your sign-in identifier has been updated."
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Signed out."
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

type TOTPConfirmResponse struct{}

func (TOTPConfirmResponse) Message() string {
	return "Authenticator app enabled."
}

type ProfileResponse struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileUpdateRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type ProfileUpdateResponse struct{}

func (ProfileUpdateResponse) Message() string {
	return "Profile updated."
}
