package session

import "time"

// Session stores the Google OAuth tokens of one signed-in dashboard user.
//
// Tokens are never stored in clear: AccessTokenSealed and RefreshTokenSealed
// hold the Sealer output, bound to the session id.
type Session struct {
	ID    string `json:"id" gorm:"primaryKey;size:36"`
	Email string `json:"email" gorm:"size:320;index"`

	AccessTokenSealed  []byte    `json:"-" gorm:"not null"`
	RefreshTokenSealed []byte    `json:"-"`
	TokenExpiry        time.Time `json:"token_expiry"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" gorm:"index"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}
