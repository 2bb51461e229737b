package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	gomail "github.com/wneessen/go-mail"

	"github.com/spec-kit/contacts-service/internal/config"
)

// Mailer delivers account emails. Transport failures are the caller's to
// swallow; the mailer just reports them.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, username, token, baseURL string) error
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

const confirmationBody = `<html>
<body>
  <p>Hello {{.Username}},</p>
  <p>Please confirm your email address by following the link below:</p>
  <p><a href="{{.Host}}/auth/confirmed_email/{{.Token}}">Confirm email</a></p>
  <p>The link is valid for 7 days. If you did not register, ignore this message.</p>
</body>
</html>`

const passwordResetBody = `<html>
<body>
  <p>Hello {{.Username}},</p>
  <p>Use this code to reset your password: <b>{{.Token}}</b></p>
  <p>If you did not request a reset, ignore this message.</p>
</body>
</html>`

var (
	confirmationTmpl  = template.Must(template.New("confirm").Parse(confirmationBody))
	passwordResetTmpl = template.Must(template.New("reset").Parse(passwordResetBody))
)

// SMTPMailer sends mail over SMTP using go-mail.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer constructs the mailer.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendConfirmation delivers the email verification link.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, to, username, token, baseURL string) error {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, map[string]string{
		"Username": username,
		"Token":    token,
		"Host":     baseURL,
	})
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}
	return m.send(ctx, to, "Confirm your email", body.String())
}

// SendPasswordReset delivers the single-use reset code.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	var body bytes.Buffer
	err := passwordResetTmpl.Execute(&body, map[string]string{
		"Username": username,
		"Token":    token,
	})
	if err != nil {
		return fmt.Errorf("render password reset email: %w", err)
	}
	return m.send(ctx, to, "Password reset", body.String())
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
