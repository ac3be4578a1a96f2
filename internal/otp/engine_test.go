package otp

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/model"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
)

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

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := Generate(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateLengths(t *testing.T) {
	for _, length := range []int{1, 4, 8} {
		code, err := Generate(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		if length > 1 {
			require.NotEqual(t, byte('0'), code[0])
		}
	}
	_, err := Generate(0)
	require.Error(t, err)
	_, err = Generate(19)
	require.Error(t, err)
}

func TestIssueVerifyConsume(t *testing.T) {
	ctx := context.Background()
	store := &memChallengeStore{}
	engine := NewEngine(store)

	code, err := engine.Issue(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.ErrorIs(t, engine.Verify(ctx, "a@x.com", "000000"), appErr.ErrOtpInvalid)
	require.ErrorIs(t, engine.Verify(ctx, "b@x.com", code), appErr.ErrOtpInvalid)
	require.NoError(t, engine.Verify(ctx, "a@x.com", code))

	require.NoError(t, engine.Consume(ctx, "a@x.com"))
	require.ErrorIs(t, engine.Verify(ctx, "a@x.com", code), appErr.ErrOtpInvalid)
	// consume again: no rows left, still fine
	require.NoError(t, engine.Consume(ctx, "a@x.com"))
}

func TestVerifyRejectsExpiredRow(t *testing.T) {
	// A row past its window may survive until the purge job runs; the
	// engine must not accept it in the meantime.
	ctx := context.Background()
	store := &memChallengeStore{}
	engine := NewEngine(store)

	now := time.Now().Unix()
	require.NoError(t, store.Create(ctx, &model.OtpChallenge{
		ID:        "stale",
		Email:     "a@x.com",
		Code:      "123456",
		Ctime:     now - 600,
		ExpiresAt: now - 300,
	}))
	require.ErrorIs(t, engine.Verify(ctx, "a@x.com", "123456"), appErr.ErrOtpInvalid)
}

func TestMultipleOutstandingCodes(t *testing.T) {
	ctx := context.Background()
	store := &memChallengeStore{}
	engine := NewEngine(store)

	first, err := engine.Issue(ctx, "a@x.com")
	require.NoError(t, err)
	second, err := engine.Issue(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 2, store.count("a@x.com"))

	// both stay valid until one is consumed, then all are gone
	require.NoError(t, engine.Verify(ctx, "a@x.com", first))
	require.NoError(t, engine.Verify(ctx, "a@x.com", second))
	require.NoError(t, engine.Consume(ctx, "a@x.com"))
	require.Equal(t, 0, store.count("a@x.com"))
}
