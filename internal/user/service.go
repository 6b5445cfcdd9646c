package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// SessionClearer is implemented by *apiclient.Client.
type SessionClearer interface {
	ClearSession(visitorID string)
}

// Service authenticates visitors against the backend. The backend session
// cookie is what proves the login; Sessions only mirrors who it belongs to.
type Service struct {
	client   apiclient.Doer
	backend  SessionClearer
	sessions *Sessions
	log      logrus.FieldLogger
}

func NewService(client apiclient.Doer, backend SessionClearer, sessions *Sessions, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{client: client, backend: backend, sessions: sessions, log: log}
}

func (s *Service) Login(ctx context.Context, visitorID string, in Credentials) (User, error) {
	if err := check(in); err != nil {
		return User{}, err
	}
	err := s.client.Do(ctx, visitorID, apiclient.Request{Method: http.MethodPost, Endpoint: "/auth/login", Body: in}, nil)
	if err != nil {
		return User{}, err
	}
	return s.Refresh(ctx, visitorID)
}

func (s *Service) Register(ctx context.Context, visitorID string, in Registration) (User, error) {
	if err := check(in); err != nil {
		return User{}, err
	}
	err := s.client.Do(ctx, visitorID, apiclient.Request{Method: http.MethodPost, Endpoint: "/auth/register", Body: in}, nil)
	if err != nil {
		return User{}, err
	}
	return s.Refresh(ctx, visitorID)
}

// Logout ends the backend session even when the backend call fails; the
// visitor is logged out locally either way.
func (s *Service) Logout(ctx context.Context, visitorID string) error {
	err := s.client.Do(ctx, visitorID, apiclient.Request{Method: http.MethodPost, Endpoint: "/auth/logout"}, nil)
	if errors.Is(err, apiclient.ErrUnauthenticated) {
		err = nil
	}
	if err != nil {
		s.log.WithError(err).WithField("visitor", visitorID).Warn("backend logout failed")
	}
	s.backend.ClearSession(visitorID)
	if ferr := s.sessions.Forget(ctx, visitorID); ferr != nil {
		return ferr
	}
	return err
}

// ForceLogout is the adapter's unauthenticated hook: the backend already
// dropped the session, so only the local record goes.
func (s *Service) ForceLogout(ctx context.Context, visitorID string) {
	if err := s.sessions.Forget(context.WithoutCancel(ctx), visitorID); err != nil {
		s.log.WithError(err).WithField("visitor", visitorID).Error("forgetting user failed")
	}
}

func (s *Service) ForgotPassword(ctx context.Context, visitorID, email string) error {
	if err := check(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}
	return s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/auth/forgot-password",
		Body:     map[string]string{"email": email},
	}, nil)
}

func (s *Service) ResetPassword(ctx context.Context, visitorID string, in PasswordReset) error {
	if err := check(in); err != nil {
		return err
	}
	return s.client.Do(ctx, visitorID, apiclient.Request{Method: http.MethodPost, Endpoint: "/auth/reset-password", Body: in}, nil)
}

// Refresh reads the user from the backend and remembers it.
func (s *Service) Refresh(ctx context.Context, visitorID string) (User, error) {
	var u User
	if err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/auth/user"}, &u); err != nil {
		return User{}, err
	}
	if err := s.sessions.Remember(ctx, visitorID, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Current returns the remembered user, asking the backend when the record
// has expired.
func (s *Service) Current(ctx context.Context, visitorID string) (User, error) {
	u, ok, err := s.sessions.Current(ctx, visitorID)
	if err != nil {
		return User{}, err
	}
	if ok {
		return u, nil
	}
	return s.Refresh(ctx, visitorID)
}

func (s *Service) UpdateProfile(ctx context.Context, visitorID string, in ProfileUpdate) (User, error) {
	if err := check(in); err != nil {
		return User{}, err
	}
	err := s.client.Do(ctx, visitorID, apiclient.Request{Method: http.MethodPut, Endpoint: "/user/profile-information", Body: in}, nil)
	if err != nil {
		return User{}, err
	}
	return s.Refresh(ctx, visitorID)
}
