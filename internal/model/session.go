package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationState enumerates the states of a participant conversation.
type ConversationState int

const (
	// StateAwaitingEmail waits for the participant's email address.
	StateAwaitingEmail ConversationState = iota
	// StateAwaitingVerification waits for the one-time code.
	StateAwaitingVerification
	// StateAskingQuestion1 waits for the answer to the first question.
	StateAskingQuestion1
	// StateAskingQuestion2 waits for the answer to the second question.
	StateAskingQuestion2
	// StateAskingQuestion3 waits for the answer to the third question.
	StateAskingQuestion3
	// StateCompleted is terminal; no further input is accepted.
	StateCompleted
)

// Session is the mutable per-connection conversation state. It is owned
// exclusively by one connection's handler, never shared and never persisted.
type Session struct {
	ID    uuid.UUID
	State ConversationState
	// Email is set on valid input in StateAwaitingEmail.
	Email string
	// VerificationCode and VerificationCodeIssuedAt are copied from the
	// pending code at verification start and are independent of the store
	// from then on.
	VerificationCode         string
	VerificationCodeIssuedAt time.Time
	VerificationAttempts     int
	SurveySetID              uuid.UUID
	Answers                  map[int]bool
	CreatedAt                time.Time
}

// NewSession creates a session in the initial state.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New(),
		State:     StateAwaitingEmail,
		Answers:   make(map[int]bool),
		CreatedAt: time.Now(),
	}
}
