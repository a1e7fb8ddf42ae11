package model

// AuthTokens is the credential pair issued on login, registration, and
// refresh. The pair is always replaced as a unit; callers never hold a
// new access token alongside an old refresh token.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest is the body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=5,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16"`
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body for POST /api/v1/auth/refresh. The refresh
// token rotates: each one is valid for exactly one renewal.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UserResponse is the profile returned by GET /api/v1/user/:userID.
type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	PollCount      int    `json:"poll_count"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}
