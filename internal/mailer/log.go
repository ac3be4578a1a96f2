package mailer

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// logTransport writes the code to the server log instead of sending
// mail. Development fallback only; it always succeeds, so it belongs at
// the end of the chain.
type logTransport struct{}

func (logTransport) Name() string {
	return "log"
}

func (logTransport) Send(ctx context.Context, email, code string) error {
	logutil.GetLogger(ctx).Info("otp code for manual delivery",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
