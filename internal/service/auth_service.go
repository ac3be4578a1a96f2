package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/otpgate/otpgate/internal/mailer"
	"github.com/otpgate/otpgate/internal/model"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/password"
	"github.com/otpgate/otpgate/internal/pkg/timeutil"
)

// notifyTimeout bounds each out-of-band delivery attempt so a stuck
// transport cannot pile up goroutines.
const notifyTimeout = 10 * time.Second

// AuthService orchestrates the credential lifecycle: signup and
// forgot-password issue OTP challenges, verify-otp and reset-password
// consume them, login exchanges a password for a session token.
type AuthService struct {
	users    UserStore
	otp      OtpEngine
	notifier mailer.Notifier

	jwtSecret []byte
	tokenTTL  time.Duration
	// echoOTP returns generated codes to the HTTP caller. Debug
	// affordance for non-production setups, injected from config rather
	// than read from the environment here.
	echoOTP bool
}

func NewAuthService(users UserStore, engine OtpEngine, notifier mailer.Notifier, jwtSecret []byte, tokenTTL time.Duration, echoOTP bool) *AuthService {
	return &AuthService{
		users:     users,
		otp:       engine,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		echoOTP:   echoOTP,
	}
}

// Signup registers an unverified account and issues its activation
// challenge. The returned code is empty unless debug echo is on.
// Delivery runs off the request path; a notifier failure never fails
// the signup.
func (s *AuthService) Signup(ctx context.Context, name, email, phone, plainPassword string) (string, error) {
	email = normalizeEmail(email)
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Verified:     0,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}
	return s.issueChallenge(ctx, email)
}

// VerifyOtp consumes a challenge: on an exact unexpired (email, code)
// match it marks the account verified, wipes every outstanding
// challenge for the email (sibling codes included, so none can be
// replayed) and returns a session token.
func (s *AuthService) VerifyOtp(ctx context.Context, email, code string) (*model.User, string, error) {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, email, code); err != nil {
		return nil, "", err
	}
	if err := s.users.MarkVerified(ctx, email, timeutil.NowUnix()); err != nil {
		// challenge matched but the account is gone; leave the
		// challenges in place and report the unknown account
		return nil, "", err
	}
	if err := s.otp.Consume(ctx, email); err != nil {
		return nil, "", err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login exchanges credentials for a session token. Unknown email and
// wrong password collapse into one error so accounts cannot be
// enumerated. Verification is not required to log in.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// only an absent account collapses into the credentials error;
		// a store failure stays a store failure and surfaces as a 500
		if appErr.IsNotFound(err) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword issues a reset challenge through the same path as
// signup. It does not touch the verification flag, and any still
// outstanding signup code stays valid alongside the new one.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return "", err
	}
	return s.issueChallenge(ctx, email)
}

// ResetPassword replaces the password hash after the same challenge
// match as VerifyOtp, then wipes all challenges for the email. No token
// is issued; the caller logs in explicitly afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, email, code); err != nil {
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordByEmail(ctx, email, hash, timeutil.NowUnix()); err != nil {
		return err
	}
	return s.otp.Consume(ctx, email)
}

func (s *AuthService) issueChallenge(ctx context.Context, email string) (string, error) {
	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return "", err
	}
	s.notifyAsync(email, code)
	if s.echoOTP {
		return code, nil
	}
	return "", nil
}

func (s *AuthService) notifyAsync(email, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(ctx, email, code); err != nil {
			logutil.GetLogger(ctx).Warn("otp delivery failed",
				zap.String("email", email),
				zap.Error(err))
		}
	}()
}
