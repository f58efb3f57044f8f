package session

import "time"

// StartRequest is the token-exchange result posted by the dashboard after
// the Google sign-in flow.
type StartRequest struct {
	AccessToken  string    `json:"access_token" binding:"required"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	Email        string    `json:"email" binding:"omitempty,email,max=320"`
}

type SessionResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
}

type StartResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

func toResponse(s *Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Email:       s.Email,
		ExpiresAt:   s.ExpiresAt,
		TokenExpiry: s.TokenExpiry,
	}
}
