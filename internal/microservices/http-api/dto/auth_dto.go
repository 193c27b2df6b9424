package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for self-registration; the account always gets role "user"
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address" binding:"required"`
}

// LoginRequest: payload for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest: payload for exchanging a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest: payload for PUT /auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// AuthResponse: response payload after successful authentication
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"` // seconds
	User         UserResponse `json:"user"`
}

// MeResponse: the caller's profile plus the store they own, if any
type MeResponse struct {
	User  UserResponse   `json:"user"`
	Store *StoreResponse `json:"store,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
