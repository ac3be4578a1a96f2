// Package mailer delivers generated OTP codes out of band. Delivery is
// best effort: callers fire it off the request path and only logs ever
// see a failure.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/otpgate/otpgate/internal/config"
)

const (
	mailSubject  = "Your OTP Code"
	mailBodyTmpl = "Your OTP is: %s. It expires in 5 minutes."
)

// Notifier is the single operation the credential service depends on.
type Notifier interface {
	Send(ctx context.Context, email, code string) error
}

// Transport is one concrete delivery channel inside the chain.
type Transport interface {
	Name() string
	Send(ctx context.Context, email, code string) error
}

// Chain tries its transports in the configured order and stops at the
// first success. All-transports-failed returns the joined errors.
type Chain struct {
	transports []Transport
}

// NewChain builds the transport list from the explicit order in
// cfg.Transports. Config validation guarantees every named transport
// has the settings it needs.
func NewChain(cfg config.MailConfig) (*Chain, error) {
	var transports []Transport
	for _, name := range cfg.Transports {
		switch name {
		case "sendgrid":
			transports = append(transports, newSendGridTransport(cfg.SendGrid.APIKey, cfg.From))
		case "smtp":
			transports = append(transports, newSMTPTransport(cfg.SMTP, cfg.From))
		case "log":
			transports = append(transports, logTransport{})
		default:
			return nil, fmt.Errorf("mailer: unknown transport %q", name)
		}
	}
	if len(transports) == 0 {
		return nil, errors.New("mailer: no transports configured")
	}
	return &Chain{transports: transports}, nil
}

func (c *Chain) Send(ctx context.Context, email, code string) error {
	var errs []error
	for _, transport := range c.transports {
		err := transport.Send(ctx, email, code)
		if err == nil {
			return nil
		}
		logutil.GetLogger(ctx).Warn("otp delivery transport failed",
			zap.String("transport", transport.Name()),
			zap.String("email", email),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", transport.Name(), err))
	}
	return errors.Join(errs...)
}
