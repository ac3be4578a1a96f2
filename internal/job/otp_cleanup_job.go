package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/otpgate/otpgate/internal/pkg/timeutil"
)

// ExpiredChallengeDeleter is the slice of the OTP ledger this job
// needs; repo.OtpChallengeRepo implements it.
type ExpiredChallengeDeleter interface {
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// OtpCleanupJob physically removes expired OTP challenges so the
// ledger stays bounded. This purge is a liveness guarantee only; the
// verification path rechecks expiry itself and never trusts the purge
// to have run.
type OtpCleanupJob struct {
	store ExpiredChallengeDeleter
}

func NewOtpCleanupJob(store ExpiredChallengeDeleter) *OtpCleanupJob {
	return &OtpCleanupJob{store: store}
}

func (j *OtpCleanupJob) Name() string {
	return "otp_cleanup"
}

func (j *OtpCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.store.DeleteExpired(ctx, timeutil.NowUnix())
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired otp challenges purged", zap.Int64("deleted", deleted))
	}
	return nil
}
