package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mastry/crm-backend/internal/entity"
)

// UserService manages the agent roster and keeps the assignment rotation in
// step with it: active team members receive leads, deactivated or removed
// ones drop out of the cycle immediately.
type UserService struct {
	Users   entity.UserRepository
	Rotator *Rotator
}

func NewUserService(users entity.UserRepository, rotator *Rotator) *UserService {
	return &UserService{Users: users, Rotator: rotator}
}

// Invite creates an active user and enrols them in the rotation.
func (s *UserService) Invite(ctx context.Context, name, email string, role entity.Role) (*entity.User, error) {
	if existing, err := s.Users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, &DomainError{Code: CodeValidation, Message: "User with this email already exists"}
	}

	user := &entity.User{
		ID:        uuid.New().String(),
		FullName:  name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.Users.Insert(ctx, user); err != nil {
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	if err := s.Rotator.AddAgent(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user from the roster and the rotation. The last active
// superadmin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return &DomainError{Code: CodeNotFound, Message: "User not found"}
	}

	if user.Role == entity.RoleSuperAdmin && user.IsActive {
		if err := s.ensureOtherActiveSuperAdmin(ctx, userID); err != nil {
			return err
		}
	}

	user.IsActive = false
	if err := s.Users.Update(ctx, user); err != nil {
		return &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}
	return s.Rotator.RemoveAgent(ctx, userID)
}

// ToggleActive flips the user's active flag and syncs the rotation. The
// same last-superadmin guard applies to deactivation.
func (s *UserService) ToggleActive(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "User not found"}
	}

	if user.IsActive && user.Role == entity.RoleSuperAdmin {
		if err := s.ensureOtherActiveSuperAdmin(ctx, userID); err != nil {
			return nil, err
		}
	}

	user.IsActive = !user.IsActive
	if err := s.Users.Update(ctx, user); err != nil {
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	if user.IsActive {
		err = s.Rotator.AddAgent(ctx, userID)
	} else {
		err = s.Rotator.RemoveAgent(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	return users, nil
}

func (s *UserService) ensureOtherActiveSuperAdmin(ctx context.Context, exceptID string) error {
	users, err := s.Users.List(ctx)
	if err != nil {
		return &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	for _, u := range users {
		if u.ID != exceptID && u.Role == entity.RoleSuperAdmin && u.IsActive {
			return nil
		}
	}
	return &DomainError{Code: CodeLastSuperAdmin, Message: "Cannot remove the last active super admin"}
}
