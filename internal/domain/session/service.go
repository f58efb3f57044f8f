package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"releasedesk/internal/pkg/jwt"
)

type StartInput struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Email        string
}

type Service struct {
	repo   SessionRepository
	sealer *Sealer
	tokens *jwt.Service
	now    func() time.Time
}

func NewService(repo SessionRepository, sealer *Sealer, tokens *jwt.Service) *Service {
	return &Service{
		repo:   repo,
		sealer: sealer,
		tokens: tokens,
		now:    time.Now,
	}
}

// Start stores the tokens obtained from the identity provider and returns
// a signed session token referencing them.
func (s *Service) Start(ctx context.Context, in StartInput) (string, *Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:          uuid.NewString(),
		Email:       in.Email,
		TokenExpiry: in.Expiry.UTC(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.tokens.TTL()),
	}

	var err error
	if sess.AccessTokenSealed, err = s.sealer.Seal(sess.ID, in.AccessToken); err != nil {
		return "", nil, fmt.Errorf("seal access token: %w", err)
	}
	if sess.RefreshTokenSealed, err = s.sealer.Seal(sess.ID, in.RefreshToken); err != nil {
		return "", nil, fmt.Errorf("seal refresh token: %w", err)
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.GenerateToken(sess.ID, sess.Email)
	if err != nil {
		return "", nil, err
	}

	log.Printf("session_started session_id=%s email=%q refreshable=%t", sess.ID, sess.Email, in.RefreshToken != "")
	return token, sess, nil
}

// Resolve turns a session token back into the stored OAuth token.
func (s *Service) Resolve(ctx context.Context, raw string) (*oauth2.Token, *Session, error) {
	claims, err := s.tokens.ValidateToken(raw)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	sess, err := s.repo.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.IsRevoked() {
		return nil, nil, ErrSessionRevoked
	}
	if sess.IsExpired(s.now()) {
		return nil, nil, ErrSessionExpired
	}

	access, err := s.sealer.Open(sess.ID, sess.AccessTokenSealed)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.sealer.Open(sess.ID, sess.RefreshTokenSealed)
	if err != nil {
		return nil, nil, err
	}

	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       sess.TokenExpiry,
	}, sess, nil
}

// End revokes the session behind raw. Unknown or invalid tokens are not an
// error: the caller is signed out either way.
func (s *Service) End(ctx context.Context, raw string) error {
	claims, err := s.tokens.ValidateToken(raw)
	if err != nil {
		return nil
	}
	err = s.repo.Revoke(ctx, claims.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err == nil {
		log.Printf("session_ended session_id=%s", claims.SessionID)
	}
	return err
}

// IsAuthFailure reports whether err means the caller has no usable session.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionRevoked) ||
		errors.Is(err, ErrSealedToken)
}
