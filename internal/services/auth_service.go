package services

import (
	"context"
	"errors"
	"fmt"

	"shopapi/internal/domain"
	"shopapi/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

type AuthService struct {
	Users  *repos.UserRepo
	Tokens *TokenIssuer
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func (s *AuthService) hash(password string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

func (s *AuthService) Register(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	h, err := s.hash(nu.Password)
	if err != nil {
		return nil, err
	}
	return s.Users.Create(ctx, nu, h, false)
}

// Login checks the password of the user identified by email or username and
// returns a signed token.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	u, err := s.Users.ByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrBadCreds
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", ErrBadCreds
	}
	return s.Tokens.Issue(u)
}

// CurrentUser verifies the token and loads its user. A token whose user no
// longer exists is unauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %d gone: %w", id, domain.ErrUnauthorized)
	}
	return u, err
}

// EnsureAdmin creates an admin account, or promotes the existing account
// with that email/username and resets its password. It reports whether a new
// user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, nu domain.NewUser) (*domain.User, bool, error) {
	h, err := s.hash(nu.Password)
	if err != nil {
		return nil, false, err
	}
	u, err := s.Users.ByLogin(ctx, nu.Email)
	switch {
	case err == nil:
		if err := s.Users.Promote(ctx, u.ID, h); err != nil {
			return nil, false, err
		}
		u, err = s.Users.ByID(ctx, u.ID)
		return u, false, err
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, err
	}
	u, err = s.Users.Create(ctx, nu, h, true)
	return u, err == nil, err
}
