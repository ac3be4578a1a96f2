package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	deleted int64
	err     error
	lastNow int64
}

func (f *fakeDeleter) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	f.lastNow = now
	return f.deleted, f.err
}

func TestOtpCleanupJobRun(t *testing.T) {
	deleter := &fakeDeleter{deleted: 3}
	j := NewOtpCleanupJob(deleter)
	require.Equal(t, "otp_cleanup", j.Name())
	require.NoError(t, j.Run(context.Background()))
	require.Greater(t, deleter.lastNow, int64(0))
}

func TestOtpCleanupJobError(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("db down")}
	j := NewOtpCleanupJob(deleter)
	require.Error(t, j.Run(context.Background()))
}
