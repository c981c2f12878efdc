// file: service/mailer.go

package service

import (
	"crypto/tls"
	"fmt"
	"go-blog-api/config"
	"go-blog-api/logger"
	"net/url"

	"github.com/dajohi/goemail"
)

// IMailer defines the contract for outbound email delivery. It is an
// interface so tests and mail-less deployments can substitute a no-op.
type IMailer interface {
	IsEnabled() bool
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer sends mail through an SMTPS server from a preset address.
type SMTPMailer struct {
	smtp     *goemail.SMTP
	from     string
	fromName string
	disabled bool
}

// NewSMTPMailer builds the mailer from the smtp section of the configuration.
// Mail is considered disabled when the credentials are missing; sends then
// become no-ops rather than errors so local development works without a mail
// server.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	smtpCfg := cfg.SMTP
	if smtpCfg.Disabled || smtpCfg.Host == "" || smtpCfg.User == "" || smtpCfg.Password == "" {
		logger.Log.Warn("SMTP mail is disabled")
		return &SMTPMailer{disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%s:%s@%s", smtpCfg.User, url.QueryEscape(smtpCfg.Password), smtpCfg.Host)
	u, err := url.Parse(h)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp host: %w", err)
	}

	smtp, err := goemail.NewSMTP(u.String(), &tls.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to set up smtp client: %w", err)
	}

	logger.Log.WithField("host", smtpCfg.Host).Info("SMTP mail client initialized")

	return &SMTPMailer{
		smtp:     smtp,
		from:     smtpCfg.From,
		fromName: smtpCfg.FromName,
	}, nil
}

// IsEnabled reports whether mail delivery is configured.
func (m *SMTPMailer) IsEnabled() bool {
	return !m.disabled
}

// SendPasswordReset delivers the reset link to the user. The unhashed token
// only ever exists in this email and in the client that follows the link.
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	if m.disabled {
		logger.Log.WithField("to", to).Warn("Mail disabled; skipping password reset email")
		return nil
	}

	body := fmt.Sprintf(
		"You requested to reset your password.\n\n"+
			"Open the link below to choose a new one:\n\n%s\n\n"+
			"The link expires in 1 hour. If you did not request this, you can ignore this email.\n",
		resetURL)

	msg := goemail.NewMessage(m.from, "Password Reset Request", body)
	msg.SetName(m.fromName)
	msg.AddTo(to)

	if err := m.smtp.Send(msg); err != nil {
		logger.Log.WithError(err).WithField("to", to).Error("Failed to send password reset email")
		return err
	}

	logger.Log.WithField("to", to).Info("Password reset email sent")
	return nil
}
