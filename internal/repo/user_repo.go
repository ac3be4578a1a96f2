package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/otpgate/otpgate/internal/model"
	"github.com/otpgate/otpgate/internal/pkg/dbutil"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
)

var userColumns = []string{"id", "name", "email", "phone", "profile_image", "password_hash", "verified", "ctime", "mtime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"phone":         user.Phone,
		"profile_image": user.ProfileImage,
		"password_hash": user.PasswordHash,
		"verified":      user.Verified,
		"ctime":         user.Ctime,
		"mtime":         user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.ProfileImage, &user.PasswordHash, &user.Verified, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkVerified flips the verification flag for the account owning
// email. Flipping an already verified account is a no-op update, not an
// error; only a missing row reports ErrNotFound.
func (r *UserRepo) MarkVerified(ctx context.Context, email string, mtime int64) error {
	return r.update(ctx, map[string]interface{}{"email": email}, map[string]interface{}{
		"verified": 1,
		"mtime":    mtime,
	})
}

func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string, mtime int64) error {
	return r.update(ctx, map[string]interface{}{"email": email}, map[string]interface{}{
		"password_hash": passwordHash,
		"mtime":         mtime,
	})
}

// UpdateFields applies a partial profile update. Callers pass only the
// columns they intend to change.
func (r *UserRepo) UpdateFields(ctx context.Context, userID string, update map[string]interface{}) error {
	return r.update(ctx, map[string]interface{}{"id": userID}, update)
}

func (r *UserRepo) update(ctx context.Context, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
