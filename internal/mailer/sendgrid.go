package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridTransport delivers through the SendGrid v3 web API. It is the
// preferred transport when an API key is configured.
type sendGridTransport struct {
	client *sendgrid.Client
	from   string
}

func newSendGridTransport(apiKey, from string) *sendGridTransport {
	return &sendGridTransport{client: sendgrid.NewSendClient(apiKey), from: from}
}

func (t *sendGridTransport) Name() string {
	return "sendgrid"
}

func (t *sendGridTransport) Send(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(mailBodyTmpl, code)
	message := sgmail.NewSingleEmail(sgmail.NewEmail("", t.from), mailSubject, sgmail.NewEmail("", email), body, body)
	resp, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
