package service

import (
	"context"
	"fmt"

	"github.com/otpgate/otpgate/internal/model"
	"github.com/otpgate/otpgate/internal/pkg/password"
	"github.com/otpgate/otpgate/internal/pkg/timeutil"
)

// UserService serves the authenticated profile routes.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ProfileUpdate carries the updatable fields; empty values are left
// untouched. A new password is re-hashed before it reaches the store.
type ProfileUpdate struct {
	Name         string
	Phone        string
	ProfileImage string
	Password     string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	update := map[string]interface{}{}
	if upd.Name != "" {
		update["name"] = upd.Name
	}
	if upd.Phone != "" {
		update["phone"] = upd.Phone
	}
	if upd.ProfileImage != "" {
		update["profile_image"] = upd.ProfileImage
	}
	if upd.Password != "" {
		hash, err := password.Hash(upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		update["password_hash"] = hash
	}
	if len(update) > 0 {
		update["mtime"] = timeutil.NowUnix()
		if err := s.users.UpdateFields(ctx, userID, update); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, userID)
}
