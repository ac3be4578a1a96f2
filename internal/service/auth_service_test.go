package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/model"
	"github.com/otpgate/otpgate/internal/otp"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/password"
	"github.com/otpgate/otpgate/internal/service"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by email
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*model.User{}}
}

func (s *memUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return appErr.ErrConflict
	}
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memUserStore) MarkVerified(ctx context.Context, email string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return appErr.ErrNotFound
	}
	user.Verified = 1
	user.Mtime = mtime
	return nil
}

func (s *memUserStore) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return appErr.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.Mtime = mtime
	return nil
}

func (s *memUserStore) UpdateFields(ctx context.Context, userID string, update map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID != userID {
			continue
		}
		for column, value := range update {
			switch column {
			case "name":
				user.Name = value.(string)
			case "phone":
				user.Phone = value.(string)
			case "profile_image":
				user.ProfileImage = value.(string)
			case "password_hash":
				user.PasswordHash = value.(string)
			case "mtime":
				user.Mtime = value.(int64)
			}
		}
		return nil
	}
	return appErr.ErrNotFound
}

type memChallengeStore struct {
	mu   sync.Mutex
	rows []*model.OtpChallenge
}

func (s *memChallengeStore) Create(ctx context.Context, challenge *model.OtpChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *challenge
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *memChallengeStore) Find(ctx context.Context, email, code string) (*model.OtpChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.OtpChallenge
	for _, row := range s.rows {
		if row.Email == email && row.Code == code {
			if found == nil || row.Ctime > found.Ctime {
				found = row
			}
		}
	}
	if found == nil {
		return nil, appErr.ErrNotFound
	}
	copied := *found
	return &copied, nil
}

func (s *memChallengeStore) DeleteByEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.Email != email {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

func (s *memChallengeStore) count(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.Email == email {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	sent chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan string, 16)}
}

func (n *recordingNotifier) Send(ctx context.Context, email, code string) error {
	n.sent <- code
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case code := <-n.sent:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
		return ""
	}
}

type env struct {
	users      *memUserStore
	challenges *memChallengeStore
	notifier   *recordingNotifier
	auth       *service.AuthService
}

var testSecret = []byte("test-secret")

func newEnv(t *testing.T) *env {
	t.Helper()
	users := newMemUserStore()
	challenges := &memChallengeStore{}
	notifier := newRecordingNotifier()
	engine := otp.NewEngine(challenges)
	auth := service.NewAuthService(users, engine, notifier, testSecret, 7*24*time.Hour, true)
	return &env{users: users, challenges: challenges, notifier: notifier, auth: auth}
}

func TestSignupIssuesChallengeAndNotifies(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	code, err := e.auth.Signup(ctx, "A", "A@X.com", "1234567890", "pw1")
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Equal(t, code, e.notifier.wait(t))

	// email normalized to lowercase in both stores
	user, err := e.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 0, user.Verified)
	require.Equal(t, 1, e.challenges.count("a@x.com"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.auth.Signup(ctx, "A", "a@x.com", "", "pw1")
	require.NoError(t, err)
	_, err = e.auth.Signup(ctx, "B", "A@X.COM", "", "pw2")
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestVerifyOtpExactlyOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	code, err := e.auth.Signup(ctx, "A", "a@x.com", "1234567890", "pw1")
	require.NoError(t, err)

	_, _, err = e.auth.VerifyOtp(ctx, "a@x.com", "999999x")
	require.ErrorIs(t, err, appErr.ErrOtpInvalid)

	user, token, err := e.auth.VerifyOtp(ctx, "a@x.com", code)
	require.NoError(t, err)
	require.Equal(t, 1, user.Verified)
	require.NotEmpty(t, token)

	claims, err := jwt.ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)

	// consumed: same code again fails
	_, _, err = e.auth.VerifyOtp(ctx, "a@x.com", code)
	require.ErrorIs(t, err, appErr.ErrOtpInvalid)
	require.Equal(t, 0, e.challenges.count("a@x.com"))
}

func TestVerifyOtpUnknownAccount(t *testing.T) {
	// A challenge without a user row: the defensive branch reports the
	// unknown account and leaves the challenge unconsumed.
	ctx := context.Background()
	e := newEnv(t)

	require.NoError(t, e.challenges.Create(ctx, &model.OtpChallenge{
		ID:        "orphan",
		Email:     "ghost@x.com",
		Code:      "123456",
		Ctime:     time.Now().Unix(),
		ExpiresAt: time.Now().Unix() + 300,
	}))
	_, _, err := e.auth.VerifyOtp(ctx, "ghost@x.com", "123456")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Equal(t, 1, e.challenges.count("ghost@x.com"))
}

func TestLoginSingleError(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.auth.Signup(ctx, "A", "a@x.com", "", "pw1")
	require.NoError(t, err)

	// unverified users may still log in
	user, token, err := e.auth.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, 0, user.Verified)
	require.NotEmpty(t, token)

	_, _, badPassword := e.auth.Login(ctx, "a@x.com", "wrong")
	_, _, badEmail := e.auth.Login(ctx, "nobody@x.com", "pw1")
	require.ErrorIs(t, badPassword, appErr.ErrUnauthorized)
	require.ErrorIs(t, badEmail, appErr.ErrUnauthorized)
	require.Equal(t, badPassword, badEmail)
}

type failingUserStore struct {
	*memUserStore
	getByEmailErr error
}

func (s *failingUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.getByEmailErr != nil {
		return nil, s.getByEmailErr
	}
	return s.memUserStore.GetByEmail(ctx, email)
}

func TestLoginStoreFailureIsNotAuthError(t *testing.T) {
	// an unavailable store must not masquerade as bad credentials:
	// only an absent account collapses into the auth error
	ctx := context.Background()
	cause := errors.New("store unavailable")
	users := &failingUserStore{memUserStore: newMemUserStore(), getByEmailErr: cause}
	engine := otp.NewEngine(&memChallengeStore{})
	auth := service.NewAuthService(users, engine, newRecordingNotifier(), testSecret, 7*24*time.Hour, true)

	_, _, err := auth.Login(ctx, "a@x.com", "pw1")
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.auth.ForgotPassword(ctx, "nobody@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestResetPasswordFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	signupCode, err := e.auth.Signup(ctx, "A", "a@x.com", "", "pw1")
	require.NoError(t, err)

	resetCode, err := e.auth.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 2, e.challenges.count("a@x.com"))

	// verification flag untouched by the reset path
	user, err := e.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 0, user.Verified)

	require.ErrorIs(t, e.auth.ResetPassword(ctx, "a@x.com", "999999x", "pw2"), appErr.ErrOtpInvalid)
	require.NoError(t, e.auth.ResetPassword(ctx, "a@x.com", resetCode, "pw2"))

	// every challenge is gone, the still-outstanding signup code included
	require.Equal(t, 0, e.challenges.count("a@x.com"))
	_, _, err = e.auth.VerifyOtp(ctx, "a@x.com", signupCode)
	require.ErrorIs(t, err, appErr.ErrOtpInvalid)

	_, _, err = e.auth.Login(ctx, "a@x.com", "pw1")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, _, err = e.auth.Login(ctx, "a@x.com", "pw2")
	require.NoError(t, err)

	user, err = e.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, password.Compare(user.PasswordHash, "pw2"))
}

func TestUpdateProfileRehashesPassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	usersService := service.NewUserService(e.users)

	_, err := e.auth.Signup(ctx, "A", "a@x.com", "", "pw1")
	require.NoError(t, err)
	user, err := e.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	updated, err := usersService.UpdateProfile(ctx, user.ID, service.ProfileUpdate{
		Name:     "Anna",
		Password: "pw2",
	})
	require.NoError(t, err)
	require.Equal(t, "Anna", updated.Name)
	require.NoError(t, password.Compare(updated.PasswordHash, "pw2"))

	_, _, err = e.auth.Login(ctx, "a@x.com", "pw2")
	require.NoError(t, err)
}
