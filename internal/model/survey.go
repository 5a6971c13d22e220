package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuestionCount is the fixed number of questions in a survey set.
const QuestionCount = 3

// SurveySet is a named set of yes/no questions. At most one set is active
// at a time; participants always answer the most recently created active set.
type SurveySet struct {
	ID        uuid.UUID
	Name      string
	Questions [QuestionCount]string
	CreatedAt time.Time
	Active    bool
}

// Response is one participant's completed answers to a survey set. A
// participant records at most one response per set.
type Response struct {
	ID               uuid.UUID
	SurveySetID      uuid.UUID
	ParticipantEmail string
	Answers          [QuestionCount]bool
	CompletedAt      time.Time
}

// SurveyStore persists survey sets.
type SurveyStore interface {
	// Create stores a new survey set and returns it with generated fields.
	Create(ctx context.Context, survey SurveySet) (SurveySet, error)
	// GetByID returns the survey set with the given ID or ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (SurveySet, error)
	// GetActive returns the newest active survey set or ErrNotFound.
	GetActive(ctx context.Context) (SurveySet, error)
	// List returns all survey sets, newest first.
	List(ctx context.Context) ([]SurveySet, error)
	// Deactivate marks the survey set inactive or returns ErrNotFound.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ResponseStore persists participant responses.
type ResponseStore interface {
	// Save stores a response. It returns ErrDuplicateResponse when the
	// participant already responded to the survey set.
	Save(ctx context.Context, response Response) (Response, error)
	// HasResponded reports whether the email has a response for the set.
	HasResponded(ctx context.Context, email string, surveyID uuid.UUID) (bool, error)
	// ListBySurvey returns all responses recorded for the set.
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]Response, error)
}
