// Package auth signs storefront users in and out.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"go.uber.org/zap"
)

const (
	RegisteredMessage = "Account created successfully! Redirecting to login..."

	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
	transportMessage = "Connection error. Please try again."
)

// Error is a rejected sign-in or registration carrying the text to show.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for an error from this package.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return domain.Describe(err, "")
}

type Backend interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) error
}

type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(backend Backend, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{backend: backend, logger: l}
}

// Login checks the credentials with the backend and remembers the user in sc.
func (s *Service) Login(ctx context.Context, sc *session.Context, form validation.LoginForm) (session.Auth, error) {
	if err := validation.Check(&form); err != nil {
		return session.Auth{}, err
	}

	res, err := s.backend.Login(ctx, domain.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Info("login rejected", zap.String("email", form.Email), zap.Error(err))
		return session.Auth{}, reject(err, loginFallback)
	}

	a := session.Auth{
		Token: res.Token,
		Role:  res.User.Role,
		Name:  res.User.Name,
		Email: res.User.Email,
	}
	if a.Email == "" {
		a.Email = form.Email
	}
	if err := sc.SignIn(ctx, a); err != nil {
		return session.Auth{}, fmt.Errorf("remember login: %w", err)
	}
	return a, nil
}

// Register creates a customer account. New accounts always get the User role.
func (s *Service) Register(ctx context.Context, form validation.RegisterForm) error {
	if err := validation.Check(&form); err != nil {
		return err
	}

	err := s.backend.Register(ctx, domain.Registration{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     domain.RoleUser,
	})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Info("registration rejected", zap.String("email", form.Email), zap.Error(err))
		return reject(err, registerFallback)
	}
	return nil
}

func (s *Service) Logout(ctx context.Context, sc *session.Context) error {
	return sc.SignOut(ctx)
}

func reject(err error, fallback string) error {
	var f *domain.Failure
	if !errors.As(err, &f) {
		return &Error{Message: fallback, Err: err}
	}
	switch f.Kind {
	case domain.KindTimeout, domain.KindConnectivity:
		return &Error{Message: transportMessage, Err: err}
	default:
		return &Error{Message: f.UserMessage(fallback), Err: err}
	}
}
