package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if len(updates) == 0 {
		u, err := s.Repo.GetUser(ctx, id)
		return u, notFound(err, "user")
	}

	u, err := s.Repo.UpdateUser(ctx, id, updates)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *UserService) CreateAddress(ctx context.Context, userID uuid.UUID, req transport.AddressRequest) (*models.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	a := models.Address{UserID: userID}
	req.Apply(&a)
	if err := s.Repo.CreateAddress(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *UserService) UpdateAddress(ctx context.Context, userID, id uuid.UUID, req transport.AddressRequest) (*models.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	a, err := s.Repo.GetAddress(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "address")
	}
	req.Apply(a)
	if err := s.Repo.SaveAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *UserService) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(s.Repo.DeleteAddress(ctx, userID, id), "address")
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, req transport.SetRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	u, err := s.Repo.UpdateUser(ctx, id, map[string]any{"role": req.Role})
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}
