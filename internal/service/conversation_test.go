package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicvoice/civicvoice-server/internal/codestore"
	"github.com/civicvoice/civicvoice-server/internal/mocks"
	"github.com/civicvoice/civicvoice-server/internal/model"
	"github.com/civicvoice/civicvoice-server/internal/testutil"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testSurvey() model.SurveySet {
	return model.SurveySet{
		ID:   uuid.New(),
		Name: "June survey",
		Questions: [3]string{
			"Do you feel your interests are represented?",
			"Would you participate again?",
			"Do you trust the process?",
		},
		CreatedAt: time.Now(),
		Active:    true,
	}
}

type engineFixture struct {
	engine    *Conversation
	session   *model.Session
	codes     *codestore.Memory
	surveys   *mocks.SurveyStore
	responses *mocks.ResponseStore
	clock     *fakeClock
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	codes := codestore.NewMemory(10*time.Minute, testutil.MakeNoopLogger(), codestore.WithClock(clock.Now))
	surveys := &mocks.SurveyStore{}
	responses := &mocks.ResponseStore{}
	session := model.NewSession()

	engine := NewConversation(session, codes, surveys, responses, testutil.MakeNoopLogger(),
		5*time.Minute, 3, WithClock(clock.Now))

	return &engineFixture{
		engine:    engine,
		session:   session,
		codes:     codes,
		surveys:   surveys,
		responses: responses,
		clock:     clock,
	}
}

// verify walks the fixture's session up to the question flow.
func (f *engineFixture) verify(t *testing.T, survey model.SurveySet) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	f.surveys.On("GetActive", mock.Anything).Return(survey, nil)
	f.responses.On("HasResponded", mock.Anything, "agent@example.com", survey.ID).Return(false, nil)

	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)
	_, err = f.engine.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, model.StateAskingQuestion1, f.session.State)
}

func TestConversation_Welcome(t *testing.T) {
	f := newEngineFixture(t)

	msg := f.engine.Welcome()
	assert.Contains(t, msg, "email address")
	assert.Equal(t, model.StateAwaitingEmail, f.session.State)
}

func TestConversation_InvalidEmail(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	for _, input := range []string{"not-an-email", "missing@tld", "@example.com", ""} {
		reply, err := f.engine.ProcessInput(ctx, input)
		require.NoError(t, err)
		assert.Contains(t, reply, "Invalid email format")
		assert.Equal(t, model.StateAwaitingEmail, f.session.State)
	}
}

func TestConversation_EmailWithoutCode(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	reply, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Contains(t, reply, "request a code")
	assert.Equal(t, model.StateAwaitingEmail, f.session.State)

	// A code issued afterwards is picked up when the email is resent.
	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))

	reply, err = f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Contains(t, reply, "enter the code")
	assert.Equal(t, model.StateAwaitingVerification, f.session.State)
	assert.Equal(t, "123456", f.session.VerificationCode)
}

func TestConversation_EmailNormalized(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))

	_, err := f.engine.ProcessInput(ctx, "  Agent@Example.COM  ")
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", f.session.Email)
	assert.Equal(t, model.StateAwaitingVerification, f.session.State)
}

func TestConversation_CorrectCode(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	survey := testSurvey()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	f.surveys.On("GetActive", mock.Anything).Return(survey, nil)
	f.responses.On("HasResponded", mock.Anything, "agent@example.com", survey.ID).Return(false, nil)

	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	reply, err := f.engine.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 1 of 3")
	assert.Contains(t, reply, survey.Questions[0])
	assert.Equal(t, model.StateAskingQuestion1, f.session.State)
	assert.Equal(t, survey.ID, f.session.SurveySetID)

	// The code is consumed: a second lookup finds nothing.
	_, err = f.codes.Lookup(ctx, "agent@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestConversation_WrongCodeThreeTimes(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	reply, err := f.engine.ProcessInput(ctx, "000000")
	require.NoError(t, err)
	assert.Contains(t, reply, "2 attempt(s) remaining")
	assert.Equal(t, model.StateAwaitingVerification, f.session.State)

	reply, err = f.engine.ProcessInput(ctx, "000001")
	require.NoError(t, err)
	assert.Contains(t, reply, "1 attempt(s) remaining")

	reply, err = f.engine.ProcessInput(ctx, "000002")
	require.NoError(t, err)
	assert.Contains(t, reply, "Too many failed attempts")
	assert.Equal(t, model.StateAwaitingEmail, f.session.State)
	assert.Zero(t, f.session.VerificationAttempts)
	assert.Empty(t, f.session.VerificationCode)

	// The store entry was never consumed; resending the email restarts
	// verification with the same code.
	_, err = f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingVerification, f.session.State)
	assert.Equal(t, "123456", f.session.VerificationCode)
}

func TestConversation_SessionCodeExpiry(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	// The session TTL (5m) is shorter than the store TTL (10m); the copy
	// held in the session expires first.
	f.clock.Advance(5*time.Minute + time.Second)

	reply, err := f.engine.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "expired")
	assert.Equal(t, model.StateAwaitingEmail, f.session.State)
	assert.Empty(t, f.session.VerificationCode)
	assert.Zero(t, f.session.VerificationAttempts)
}

func TestConversation_NoActiveSurvey(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	f.surveys.On("GetActive", mock.Anything).Return(model.SurveySet{}, model.ErrNotFound)

	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	reply, err := f.engine.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "No survey is available")
	assert.Equal(t, model.StateCompleted, f.session.State)
	assert.False(t, f.engine.Recorded())
}

func TestConversation_AlreadyResponded(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	survey := testSurvey()

	require.NoError(t, f.codes.Issue(ctx, "agent@example.com", "123456"))
	f.surveys.On("GetActive", mock.Anything).Return(survey, nil)
	f.responses.On("HasResponded", mock.Anything, "agent@example.com", survey.ID).Return(true, nil)

	_, err := f.engine.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	reply, err := f.engine.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "already responded")
	assert.Equal(t, model.StateCompleted, f.session.State)
	assert.False(t, f.engine.Recorded())
}

func TestConversation_FullQuestionFlow(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	survey := testSurvey()
	f.verify(t, survey)

	var saved model.Response
	f.responses.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(model.Response)
		}).
		Return(model.Response{}, nil)

	reply, err := f.engine.ProcessInput(ctx, "y")
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 2 of 3")
	assert.Equal(t, model.StateAskingQuestion2, f.session.State)

	reply, err = f.engine.ProcessInput(ctx, "N")
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 3 of 3")
	assert.Equal(t, model.StateAskingQuestion3, f.session.State)

	reply, err = f.engine.ProcessInput(ctx, "y")
	require.NoError(t, err)
	assert.Empty(t, reply, "the immediate reply to the final answer is empty")
	assert.Equal(t, model.StateCompleted, f.session.State)
	assert.True(t, f.engine.Recorded())

	assert.Equal(t, [3]bool{true, false, true}, saved.Answers)
	assert.Equal(t, survey.ID, saved.SurveySetID)
	assert.Equal(t, "agent@example.com", saved.ParticipantEmail)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, f.clock.Now(), saved.CompletedAt)

	summary := f.engine.Summary()
	assert.NotEmpty(t, summary)
	for _, q := range survey.Questions {
		assert.Contains(t, summary, q)
	}
	assert.Contains(t, summary, "Yes")
	assert.Contains(t, summary, "No")

	// The summary is idempotent.
	assert.Equal(t, summary, f.engine.Summary())
}

func TestConversation_InvalidAnswerReprompts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	survey := testSurvey()
	f.verify(t, survey)

	for _, input := range []string{"yes", "maybe", "", "1"} {
		reply, err := f.engine.ProcessInput(ctx, input)
		require.NoError(t, err)
		assert.Contains(t, reply, "Invalid response")
		assert.Contains(t, reply, survey.Questions[0])
		assert.Equal(t, model.StateAskingQuestion1, f.session.State)
	}
}

func TestConversation_DuplicateOnSave(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.verify(t, testSurvey())

	f.responses.On("Save", mock.Anything, mock.Anything).
		Return(model.Response{}, model.ErrDuplicateResponse)

	for _, answer := range []string{"y", "n"} {
		_, err := f.engine.ProcessInput(ctx, answer)
		require.NoError(t, err)
	}

	reply, err := f.engine.ProcessInput(ctx, "y")
	require.NoError(t, err)
	assert.Contains(t, reply, "already responded")
	assert.Equal(t, model.StateCompleted, f.session.State)
	assert.False(t, f.engine.Recorded())
}

func TestConversation_SaveFailure(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.verify(t, testSurvey())

	f.responses.On("Save", mock.Anything, mock.Anything).
		Return(model.Response{}, errors.New("connection refused"))

	for _, answer := range []string{"y", "n"} {
		_, err := f.engine.ProcessInput(ctx, answer)
		require.NoError(t, err)
	}

	_, err := f.engine.ProcessInput(ctx, "y")
	require.Error(t, err)
	// The session is not corrupted and not completed.
	assert.Equal(t, model.StateAskingQuestion3, f.session.State)
	assert.False(t, f.engine.Recorded())
}

func TestConversation_RacingConnections(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	codes := codestore.NewMemory(10*time.Minute, testutil.MakeNoopLogger(), codestore.WithClock(clock.Now))
	survey := testSurvey()

	surveys := &mocks.SurveyStore{}
	surveys.On("GetActive", mock.Anything).Return(survey, nil)

	// The first connection completes before the second verifies; the
	// repository then already holds its response.
	responsesA := &mocks.ResponseStore{}
	responsesA.On("HasResponded", mock.Anything, "agent@example.com", survey.ID).Return(false, nil)
	responsesA.On("Save", mock.Anything, mock.Anything).Return(model.Response{}, nil)

	responsesB := &mocks.ResponseStore{}
	responsesB.On("HasResponded", mock.Anything, "agent@example.com", survey.ID).Return(true, nil)

	require.NoError(t, codes.Issue(ctx, "agent@example.com", "123456"))

	sessionA := model.NewSession()
	engineA := NewConversation(sessionA, codes, surveys, responsesA, testutil.MakeNoopLogger(),
		5*time.Minute, 3, WithClock(clock.Now))
	sessionB := model.NewSession()
	engineB := NewConversation(sessionB, codes, surveys, responsesB, testutil.MakeNoopLogger(),
		5*time.Minute, 3, WithClock(clock.Now))

	// Both connections copy the same code while it is still in the store.
	_, err := engineA.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)
	_, err = engineB.ProcessInput(ctx, "agent@example.com")
	require.NoError(t, err)

	// A verifies and answers all three questions.
	_, err = engineA.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	for _, answer := range []string{"y", "n", "y"} {
		_, err = engineA.ProcessInput(ctx, answer)
		require.NoError(t, err)
	}
	require.True(t, engineA.Recorded())

	// B verifies with the copy it already holds; consume is idempotent and
	// the duplicate check rejects it.
	reply, err := engineB.ProcessInput(ctx, "123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "already responded")
	assert.Equal(t, model.StateCompleted, sessionB.State)
	assert.False(t, engineB.Recorded())
}

func TestConversation_CompletedStateIgnoresInput(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.session.State = model.StateCompleted

	reply, err := f.engine.ProcessInput(ctx, "y")
	require.NoError(t, err)
	assert.Contains(t, reply, "reconnect")
	assert.Equal(t, model.StateCompleted, f.session.State)
}
