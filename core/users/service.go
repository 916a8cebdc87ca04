package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vigia-incidents/core/utils"
)

var (
	ErrValidation = errors.New("invalid parameters")
	ErrProvider   = errors.New("identity provider failure")
)

// Service is a pass-through over the external identity provider; it owns no
// invariants beyond field presence.
type Service struct {
	provider Provider
	logger   *utils.Logger
}

func NewService(provider Provider, logger *utils.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

func (s *Service) Provision(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return ErrValidation
	}
	if err := s.provider.CreateUser(ctx, username, email, password); err != nil {
		if s.logger != nil {
			s.logger.Errorf("provision user %s: %v", username, err)
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if s.logger != nil {
		s.logger.Printf("user provisioned username=%s", username)
	}
	return nil
}

func (s *Service) UpdateAttributes(ctx context.Context, username string, attrs map[string]string) error {
	username = strings.TrimSpace(username)
	if username == "" || len(attrs) == 0 {
		return ErrValidation
	}
	if err := s.provider.UpdateUserAttributes(ctx, username, attrs); err != nil {
		if s.logger != nil {
			s.logger.Errorf("update user %s: %v", username, err)
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if s.logger != nil {
		s.logger.Printf("user updated username=%s", username)
	}
	return nil
}
