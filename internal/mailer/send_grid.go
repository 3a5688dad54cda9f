package mailer

import (
	"fmt"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type sendClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridMailer struct {
	fromEmail string
	client    sendClient
	isSandBox bool
	logger    *zap.SugaredLogger
	enabled   bool
	backoff   time.Duration
}

func NewSendgrid(apiKey string, fromEmail string, isProduction bool, logger *zap.SugaredLogger) *SendGridMailer {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &SendGridMailer{
		fromEmail: fromEmail,
		client:    sendgrid.NewSendClient(apiKey),
		// Sandbox mode is only used to validate your request. The email will never be delivered while this feature is enabled!
		isSandBox: !isProduction,
		logger:    logger,
		enabled:   apiKey != "" && fromEmail != "",
		backoff:   time.Second,
	}
}

func (m SendGridMailer) Enabled() bool {
	return m.enabled
}

// Data is struct entity where it will be used in template.
//
//	Example usage:
//	status, err := Send(mailer.RUN_SUMMARY_TEMPLATE, user.Name, user.Email, mailer.RunSummaryData{...})
//
// When no api key is configured the mail is rendered but not sent and status 0 is returned.
func (m SendGridMailer) Send(templateFile, toUsername, toEmail string, data any) (int, error) {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		m.logger.Errorf("Error occurred during mail template rendering, error: %v", err)
		return -1, err
	}

	if !m.enabled {
		m.logger.Debugf("Mailer disabled, skip sending %q to %s", subject, toEmail)
		return 0, nil
	}

	from := mail.NewEmail(FROM_NAME, m.fromEmail)
	to := mail.NewEmail(toUsername, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", body)

	message.SetMailSettings(&mail.MailSettings{
		SandboxMode: &mail.Setting{
			Enable: &m.isSandBox,
		},
	})

	var lastErr error
	for i := 0; i < MAX_RETRY; i++ {
		response, err := m.client.Send(message)
		if err != nil {
			lastErr = err
			// linear backoff
			time.Sleep(m.backoff * time.Duration(i+1))
			continue
		}

		return response.StatusCode, nil
	}

	m.logger.Errorf("Failed to send email after %d attempt, error: %v", MAX_RETRY, lastErr)

	return -1, fmt.Errorf("failed to send email after %d attempt: %w", MAX_RETRY, lastErr)
}
