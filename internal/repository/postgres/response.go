package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civicvoice/civicvoice-server/internal/model"
)

// Postgres error code for unique constraint violations.
const uniqueViolationCode = "23505"

var _ model.ResponseStore = (*ResponseRepository)(nil)

type ResponseRepository struct {
	db *Connection
}

func NewResponseRepository(db *Connection) *ResponseRepository {
	return &ResponseRepository{
		db: db,
	}
}

// Save persists a response. A violation of the one-response-per-participant
// constraint is reported as ErrDuplicateResponse so callers can treat the
// loser of a verification race as "already responded".
func (r *ResponseRepository) Save(ctx context.Context, response model.Response) (model.Response, error) {
	query := `INSERT INTO responses (id, survey_set_id, participant_email, a1, a2, a3, completed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, survey_set_id, participant_email, a1, a2, a3, completed_at`

	var saved model.Response
	err := r.db.QueryRow(ctx, query,
		response.ID, response.SurveySetID, response.ParticipantEmail,
		response.Answers[0], response.Answers[1], response.Answers[2], response.CompletedAt,
	).Scan(
		&saved.ID, &saved.SurveySetID, &saved.ParticipantEmail,
		&saved.Answers[0], &saved.Answers[1], &saved.Answers[2], &saved.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return model.Response{}, model.ErrDuplicateResponse
		}
		return model.Response{}, fmt.Errorf("failed to save response: %w", err)
	}

	return saved, nil
}

func (r *ResponseRepository) HasResponded(ctx context.Context, email string, surveyID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
				  SELECT 1 FROM responses WHERE participant_email = $1 AND survey_set_id = $2
			  )`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email, surveyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for existing response: %w", err)
	}

	return exists, nil
}

func (r *ResponseRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Response, error) {
	query := `SELECT id, survey_set_id, participant_email, a1, a2, a3, completed_at
			  FROM responses WHERE survey_set_id = $1 ORDER BY completed_at`

	rows, err := r.db.Query(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var response model.Response
		if err := rows.Scan(
			&response.ID, &response.SurveySetID, &response.ParticipantEmail,
			&response.Answers[0], &response.Answers[1], &response.Answers[2], &response.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	return responses, nil
}
