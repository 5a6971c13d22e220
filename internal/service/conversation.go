package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	yesNoPattern  = regexp.MustCompile(`^[ynYN]$`)
	questionState = map[int]model.ConversationState{
		0: model.StateAskingQuestion2,
		1: model.StateAskingQuestion3,
	}
)

const welcomeMessage = `=== Welcome to Civic Voice ===

You are participating in a short civic survey. Your answers are recorded
once per participant and contribute to ongoing research.

To begin, please provide your email address for verification:`

// Conversation drives one connection's session from initial contact through
// verified identity and three answered questions to a terminal outcome. It
// owns the session exclusively and is single-threaded: the transport feeds
// it one text line at a time and awaits the reply.
type Conversation struct {
	session     *model.Session
	codes       model.CodeStore
	surveys     model.SurveyStore
	responses   model.ResponseStore
	logger      *logger.Logger
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time

	survey   model.SurveySet
	recorded bool
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) {
		c.now = now
	}
}

// NewConversation creates an engine bound to one session. The ttl bounds
// how long the session may sit in the verification state after the code was
// copied from the store; it is independent of the store's own TTL.
func NewConversation(
	session *model.Session,
	codes model.CodeStore,
	surveys model.SurveyStore,
	responses model.ResponseStore,
	logger *logger.Logger,
	ttl time.Duration,
	maxAttempts int,
	opts ...ConversationOption,
) *Conversation {
	c := &Conversation{
		session:     session,
		codes:       codes,
		surveys:     surveys,
		responses:   responses,
		logger:      logger,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Welcome returns the greeting shown when the connection opens.
func (c *Conversation) Welcome() string {
	return welcomeMessage
}

// Session returns the session the engine operates on.
func (c *Conversation) Session() *model.Session {
	return c.session
}

// Recorded reports whether a response was persisted by this conversation.
func (c *Conversation) Recorded() bool {
	return c.recorded
}

// ProcessInput handles one line of participant input according to the
// current state. A returned error is a collaborator failure: the session is
// intact and the transport decides how to report it.
func (c *Conversation) ProcessInput(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)

	switch c.session.State {
	case model.StateAwaitingEmail:
		return c.handleEmail(ctx, input)
	case model.StateAwaitingVerification:
		return c.handleVerification(ctx, input)
	case model.StateAskingQuestion1:
		return c.handleAnswer(ctx, input, 0)
	case model.StateAskingQuestion2:
		return c.handleAnswer(ctx, input, 1)
	case model.StateAskingQuestion3:
		return c.handleAnswer(ctx, input, 2)
	default:
		return "Session complete. Please reconnect to start over.", nil
	}
}

func (c *Conversation) handleEmail(ctx context.Context, input string) (string, error) {
	if !emailPattern.MatchString(input) {
		return "Invalid email format. Please enter a valid email address:", nil
	}

	email := model.NormalizeEmail(input)
	c.session.Email = email

	entry, err := c.codes.Lookup(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		// The store is not polled: the participant must resend the email
		// once a code exists to re-trigger this lookup.
		return fmt.Sprintf("No verification code is on file for %s. Please request a code first, then send your email again:", email), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up verification code: %w", err)
	}

	c.session.VerificationCode = entry.Code
	c.session.VerificationCodeIssuedAt = entry.IssuedAt
	c.session.State = model.StateAwaitingVerification

	return fmt.Sprintf("A verification code was issued for %s. Please enter the code:", email), nil
}

func (c *Conversation) handleVerification(ctx context.Context, input string) (string, error) {
	expiry := c.session.VerificationCodeIssuedAt.Add(c.ttl)
	if c.now().After(expiry) {
		c.resetToEmail()
		return "Verification code expired. Please enter your email again:", nil
	}

	if input != c.session.VerificationCode {
		c.session.VerificationAttempts++
		if c.session.VerificationAttempts >= c.maxAttempts {
			c.resetToEmail()
			return "Too many failed attempts. Please enter your email again:", nil
		}
		remaining := c.maxAttempts - c.session.VerificationAttempts
		return fmt.Sprintf("Incorrect code. %d attempt(s) remaining. Please try again:", remaining), nil
	}

	// Consume before anything else so a second connection holding the same
	// code cannot verify with it.
	if err := c.codes.Consume(ctx, c.session.Email); err != nil {
		return "", fmt.Errorf("failed to consume verification code: %w", err)
	}

	survey, err := c.surveys.GetActive(ctx)
	if errors.Is(err, model.ErrNotFound) {
		c.session.State = model.StateCompleted
		return "No survey is available right now. Please try again later.", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get active survey: %w", err)
	}

	responded, err := c.responses.HasResponded(ctx, c.session.Email, survey.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check for existing response: %w", err)
	}
	if responded {
		c.session.State = model.StateCompleted
		return "You have already responded to the current survey. Thank you!", nil
	}

	c.survey = survey
	c.session.SurveySetID = survey.ID
	c.session.State = model.StateAskingQuestion1

	c.logger.Info("participant verified",
		"session_id", c.session.ID,
		"survey_id", survey.ID)

	return fmt.Sprintf("Email verified successfully!\n\nQuestion 1 of 3:\n%s", survey.Questions[0]), nil
}

func (c *Conversation) handleAnswer(ctx context.Context, input string, index int) (string, error) {
	if !yesNoPattern.MatchString(input) {
		return fmt.Sprintf("[ERROR: Invalid response. Please answer with 'y' for yes or 'n' for no.]\n\n%s", c.survey.Questions[index]), nil
	}

	c.session.Answers[index] = strings.EqualFold(input, "y")

	if index < model.QuestionCount-1 {
		c.session.State = questionState[index]
		next := index + 1
		return fmt.Sprintf("Response recorded.\n\nQuestion %d of 3:\n%s", next+1, c.survey.Questions[next]), nil
	}

	return c.saveResponse(ctx)
}

func (c *Conversation) saveResponse(ctx context.Context) (string, error) {
	response := model.Response{
		ID:               uuid.New(),
		SurveySetID:      c.session.SurveySetID,
		ParticipantEmail: c.session.Email,
		CompletedAt:      c.now(),
	}
	for i := 0; i < model.QuestionCount; i++ {
		response.Answers[i] = c.session.Answers[i]
	}

	_, err := c.responses.Save(ctx, response)
	if errors.Is(err, model.ErrDuplicateResponse) {
		// Lost the race against another connection verifying the same email.
		c.session.State = model.StateCompleted
		return "You have already responded to the current survey. Thank you!", nil
	}
	if err != nil {
		// The session stays in the asking state; the transport reports a
		// generic failure and decides whether to retry.
		return "", fmt.Errorf("failed to save response: %w", err)
	}

	c.session.State = model.StateCompleted
	c.recorded = true

	c.logger.Info("response recorded",
		"session_id", c.session.ID,
		"survey_id", c.session.SurveySetID,
		"response_id", response.ID)

	// The summary is produced separately once the caller observes the
	// completed state.
	return "", nil
}

// Summary restates each question with its recorded answer. It is a pure
// function of the session and may be called any number of times; the caller
// invokes it after observing the completed state.
func (c *Conversation) Summary() string {
	var b strings.Builder

	b.WriteString("\n=== Survey Complete ===\n\nSummary of your responses:\n\n")
	for i, question := range c.survey.Questions {
		answer := "No"
		if c.session.Answers[i] {
			answer = "Yes"
		}
		fmt.Fprintf(&b, "Q%d: %s\n    Your answer: %s\n\n", i+1, question, answer)
	}
	b.WriteString("Thank you for participating in Civic Voice!\n\n[Connection will now close]")

	return b.String()
}

func (c *Conversation) resetToEmail() {
	c.session.State = model.StateAwaitingEmail
	c.session.VerificationCode = ""
	c.session.VerificationCodeIssuedAt = time.Time{}
	c.session.VerificationAttempts = 0
}
