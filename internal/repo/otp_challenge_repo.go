package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/otpgate/otpgate/internal/model"
	"github.com/otpgate/otpgate/internal/pkg/dbutil"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
)

// OtpChallengeRepo is the OTP ledger: append-only rows keyed by email,
// removed either by consumption or by the expiry purge job.
type OtpChallengeRepo struct {
	db *sql.DB
}

func NewOtpChallengeRepo(db *sql.DB) *OtpChallengeRepo {
	return &OtpChallengeRepo{db: db}
}

func (r *OtpChallengeRepo) Create(ctx context.Context, challenge *model.OtpChallenge) error {
	data := map[string]interface{}{
		"id":         challenge.ID,
		"email":      challenge.Email,
		"code":       challenge.Code,
		"ctime":      challenge.Ctime,
		"expires_at": challenge.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("otp_challenges", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Find returns one challenge matching the exact (email, code) pair, the
// most recently issued first so a just-issued code wins when several
// rows carry the same code.
func (r *OtpChallengeRepo) Find(ctx context.Context, email, code string) (*model.OtpChallenge, error) {
	where := map[string]interface{}{"email": email, "code": code, "_orderby": "ctime desc", "_limit": []uint{0, 1}}
	sqlStr, args, err := builder.BuildSelect("otp_challenges", where, []string{"id", "email", "code", "ctime", "expires_at"})
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
	var challenge model.OtpChallenge
	if err := rows.Scan(&challenge.ID, &challenge.Email, &challenge.Code, &challenge.Ctime, &challenge.ExpiresAt); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// DeleteByEmail removes every outstanding challenge for the email; it
// is a no-op when none exist.
func (r *OtpChallengeRepo) DeleteByEmail(ctx context.Context, email string) error {
	sqlStr, args, err := builder.BuildDelete("otp_challenges", map[string]interface{}{"email": email})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteExpired removes rows whose expiry is at or before now and
// reports how many were purged.
func (r *OtpChallengeRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("otp_challenges", map[string]interface{}{"expires_at <=": now})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
