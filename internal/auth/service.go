// Package auth signs admins in with email and password and hands out revocable
// session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Identity is a signed-in account.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Session is one sign-in. ID is unique per sign-in and keys the role gate.
type Session struct {
	ID        string    `json:"-"`
	Token     string    `json:"token,omitempty"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CredentialStore interface {
	Verify(ctx context.Context, email, password string) (Identity, error)
}

type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	Credentials CredentialStore
	Tokens      *TokenIssuer
	Revocations RevocationStore
	Log         logrus.FieldLogger
}

func NewService(credentials CredentialStore, tokens *TokenIssuer, revocations RevocationStore, log logrus.FieldLogger) *Service {
	return &Service{
		Credentials: credentials,
		Tokens:      tokens,
		Revocations: revocations,
		Log:         log,
	}
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	id, err := s.Credentials.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.Log.WithField("email", normalizeEmail(email)).Info("sign-in rejected")
		}
		return Session{}, err
	}

	token, claims, err := s.Tokens.Issue(id)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	s.Log.WithField("uid", id.UID).Info("signed in")
	return Session{ID: claims.ID, Token: token, Identity: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// SignOut revokes token. An invalid or expired token is already signed out.
func (s *Service) SignOut(ctx context.Context, token string) (Session, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Session{}, nil
	}
	if err := s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return Session{}, fmt.Errorf("revoke token: %w", err)
	}
	s.Log.WithField("uid", claims.UID).Info("signed out")
	return sessionFromClaims(claims), nil
}

// Authenticate resolves token to the current identity.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.Revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, ErrUnauthenticated
	}
	return sessionFromClaims(claims), nil
}

func sessionFromClaims(claims *Claims) Session {
	return Session{
		ID:        claims.ID,
		Identity:  Identity{UID: claims.UID, Email: claims.Email},
		ExpiresAt: claims.ExpiresAt.Time,
	}
}
