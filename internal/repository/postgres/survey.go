package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicvoice/civicvoice-server/internal/model"
)

var _ model.SurveyStore = (*SurveyRepository)(nil)

type SurveyRepository struct {
	db *Connection
}

func NewSurveyRepository(db *Connection) *SurveyRepository {
	return &SurveyRepository{
		db: db,
	}
}

func (r *SurveyRepository) Create(ctx context.Context, survey model.SurveySet) (model.SurveySet, error) {
	query := `INSERT INTO survey_sets (id, name, q1, q2, q3, active, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, name, q1, q2, q3, active, created_at`

	var saved model.SurveySet
	err := r.db.QueryRow(ctx, query,
		survey.ID, survey.Name, survey.Questions[0], survey.Questions[1], survey.Questions[2],
		survey.Active, survey.CreatedAt,
	).Scan(
		&saved.ID, &saved.Name, &saved.Questions[0], &saved.Questions[1], &saved.Questions[2],
		&saved.Active, &saved.CreatedAt,
	)
	if err != nil {
		return model.SurveySet{}, fmt.Errorf("failed to create survey set: %w", err)
	}

	return saved, nil
}

func (r *SurveyRepository) GetByID(ctx context.Context, id uuid.UUID) (model.SurveySet, error) {
	query := `SELECT id, name, q1, q2, q3, active, created_at
			  FROM survey_sets WHERE id = $1`

	var survey model.SurveySet
	err := r.db.QueryRow(ctx, query, id).Scan(
		&survey.ID, &survey.Name, &survey.Questions[0], &survey.Questions[1], &survey.Questions[2],
		&survey.Active, &survey.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SurveySet{}, model.ErrNotFound
		}
		return model.SurveySet{}, fmt.Errorf("failed to get survey set by id: %w", err)
	}

	return survey, nil
}

// GetActive returns the most recently created survey set flagged active.
func (r *SurveyRepository) GetActive(ctx context.Context) (model.SurveySet, error) {
	query := `SELECT id, name, q1, q2, q3, active, created_at
			  FROM survey_sets WHERE active = TRUE
			  ORDER BY created_at DESC LIMIT 1`

	var survey model.SurveySet
	err := r.db.QueryRow(ctx, query).Scan(
		&survey.ID, &survey.Name, &survey.Questions[0], &survey.Questions[1], &survey.Questions[2],
		&survey.Active, &survey.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SurveySet{}, model.ErrNotFound
		}
		return model.SurveySet{}, fmt.Errorf("failed to get active survey set: %w", err)
	}

	return survey, nil
}

func (r *SurveyRepository) List(ctx context.Context) ([]model.SurveySet, error) {
	query := `SELECT id, name, q1, q2, q3, active, created_at
			  FROM survey_sets ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey sets: %w", err)
	}
	defer rows.Close()

	var surveys []model.SurveySet
	for rows.Next() {
		var survey model.SurveySet
		if err := rows.Scan(
			&survey.ID, &survey.Name, &survey.Questions[0], &survey.Questions[1], &survey.Questions[2],
			&survey.Active, &survey.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan survey set: %w", err)
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read survey sets: %w", err)
	}

	return surveys, nil
}

func (r *SurveyRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE survey_sets SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate survey set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
