// Package email delivers verification codes over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

var _ model.Sender = (*SMTPSender)(nil)

// SMTPSender sends verification code emails through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(host string, port int, username, password, from string, logger *logger.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

// DeliverCode emails the one-time code to the participant.
func (s *SMTPSender) DeliverCode(_ context.Context, email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Civic Voice - Verification Code")

	body := fmt.Sprintf(`Welcome to Civic Voice!

Your verification code is: %s

This code is valid for a limited time and can be used once.

Thank you for participating.
`, code)

	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.logger.Info("verification email sent", "email", email)

	return nil
}
