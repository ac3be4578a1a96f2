// Package otp implements the one-time-passcode state machine: code
// generation, ledger issuance, expiry-checked verification and
// exactly-once consumption.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/otpgate/otpgate/internal/model"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
	"github.com/otpgate/otpgate/internal/pkg/timeutil"
)

const (
	// DefaultLength is the number of digits in a generated code.
	DefaultLength = 6
	// TTL is the validity window of a challenge, measured from issuance.
	// The ledger purges rows past this window in the background, but
	// Verify rechecks it explicitly: the purge is only eventually
	// consistent and must not be relied on for correctness.
	TTL = 300 * time.Second
)

// ChallengeStore is the ledger the engine runs against. OtpChallengeRepo
// implements it; tests substitute an in-memory fake.
type ChallengeStore interface {
	Create(ctx context.Context, challenge *model.OtpChallenge) error
	Find(ctx context.Context, email, code string) (*model.OtpChallenge, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type Engine struct {
	store  ChallengeStore
	length int
}

func NewEngine(store ChallengeStore) *Engine {
	return &Engine{store: store, length: DefaultLength}
}

// Generate draws a code uniformly from [10^(length-1), 10^length - 1],
// so the result is always exactly length digits with no leading zero.
func Generate(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("otp: invalid code length %d", length)
	}
	min := int64(1)
	for i := 1; i < length; i++ {
		min *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*min))
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return strconv.FormatInt(min+n.Int64(), 10), nil
}

// Issue appends one challenge for the email and returns the code. It
// never deduplicates: several simultaneously valid codes may exist for
// one email (a signup code plus a later forgot-password code), and any
// unexpired one of them verifies.
func (e *Engine) Issue(ctx context.Context, email string) (string, error) {
	code, err := Generate(e.length)
	if err != nil {
		return "", err
	}
	now := timeutil.NowUnix()
	challenge := &model.OtpChallenge{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      code,
		Ctime:     now,
		ExpiresAt: now + int64(TTL/time.Second),
	}
	if err := e.store.Create(ctx, challenge); err != nil {
		return "", fmt.Errorf("otp: store challenge: %w", err)
	}
	return code, nil
}

// Verify checks the exact (email, code) pair against the ledger. A
// missing row and an expired row both come back as ErrOtpInvalid; the
// ledger purge makes the two indistinguishable to a caller anyway.
// Verify does not consume anything.
func (e *Engine) Verify(ctx context.Context, email, code string) error {
	challenge, err := e.store.Find(ctx, email, code)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrOtpInvalid
		}
		return err
	}
	if challenge.ExpiresAt <= timeutil.NowUnix() {
		return appErr.ErrOtpInvalid
	}
	return nil
}

// Consume deletes every outstanding challenge for the email, including
// siblings issued in the same window, so no code survives a successful
// verification. Idempotent.
func (e *Engine) Consume(ctx context.Context, email string) error {
	return e.store.DeleteByEmail(ctx, email)
}
