package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

// Verification issues one-time codes out of band: it generates a code,
// stores it, and delivers it to the participant's email address. The
// conversation engine only ever looks codes up, never generates them.
type Verification struct {
	codes      model.CodeStore
	sender     model.Sender
	logger     *logger.Logger
	codeLength int
}

// NewVerification creates a Verification service.
func NewVerification(codes model.CodeStore, sender model.Sender, logger *logger.Logger, codeLength int) *Verification {
	return &Verification{
		codes:      codes,
		sender:     sender,
		logger:     logger,
		codeLength: codeLength,
	}
}

// RequestCode validates the email, issues a fresh code for it (overwriting
// any prior one) and delivers it. The issued code is returned to the caller
// for logging and tests; it must never be exposed to the request path's
// response.
func (s *Verification) RequestCode(ctx context.Context, email string) (string, error) {
	if !emailPattern.MatchString(email) {
		return "", model.ErrInvalidEmail
	}

	email = model.NormalizeEmail(email)

	code, err := generateCode(s.codeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.codes.Issue(ctx, email, code); err != nil {
		return "", fmt.Errorf("failed to issue verification code: %w", err)
	}

	if err := s.sender.DeliverCode(ctx, email, code); err != nil {
		// The code stays issued; the participant may request again.
		s.logger.Error("failed to deliver verification code",
			"email", email,
			"error", err.Error())
		return "", fmt.Errorf("failed to deliver verification code: %w", err)
	}

	s.logger.Info("verification code issued", "email", email)

	return code, nil
}

// generateCode returns a random numeric string of the given length.
func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
