package service

import (
	"context"
	"strings"

	"github.com/otpgate/otpgate/internal/model"
)

// UserStore is the credential store surface the services run against.
// repo.UserRepo implements it; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	MarkVerified(ctx context.Context, email string, mtime int64) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string, mtime int64) error
	UpdateFields(ctx context.Context, userID string, update map[string]interface{}) error
}

// OtpEngine is the challenge lifecycle as seen by the credential
// service; otp.Engine implements it.
type OtpEngine interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email string) error
}

// normalizeEmail lowercases and trims; every email entering a store or
// the ledger goes through here first.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
