package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

// Admin handles survey management endpoints.
type Admin struct {
	surveys      model.SurveyStore
	responses    model.ResponseStore
	tokenManager model.TokenManager
	adminSecret  string
	logger       *logger.Logger
}

// NewAdmin creates an Admin handler.
func NewAdmin(
	surveys model.SurveyStore,
	responses model.ResponseStore,
	tokenManager model.TokenManager,
	adminSecret string,
	logger *logger.Logger,
) *Admin {
	return &Admin{
		surveys:      surveys,
		responses:    responses,
		tokenManager: tokenManager,
		adminSecret:  adminSecret,
		logger:       logger,
	}
}

type loginRequest struct {
	Secret string `json:"secret"`
}

// Login exchanges the configured admin secret for a bearer token.
func (h *Admin) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.adminSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokenManager.GenerateAdminToken()
	if err != nil {
		h.logger.Error("failed to generate admin token", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createSurveyRequest struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

type surveyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Questions []string  `json:"questions"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toSurveyResponse(survey model.SurveySet) surveyResponse {
	return surveyResponse{
		ID:        survey.ID,
		Name:      survey.Name,
		Questions: survey.Questions[:],
		Active:    survey.Active,
		CreatedAt: survey.CreatedAt,
	}
}

// CreateSurvey creates a survey set with exactly three questions. The new
// set becomes the active one, being the most recently created.
func (h *Admin) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Questions) != model.QuestionCount {
		writeError(w, http.StatusBadRequest, "a survey set must have exactly 3 questions")
		return
	}
	for _, q := range req.Questions {
		if q == "" {
			writeError(w, http.StatusBadRequest, "questions must not be empty")
			return
		}
	}

	survey := model.SurveySet{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
		Active:    true,
	}
	copy(survey.Questions[:], req.Questions)

	saved, err := h.surveys.Create(r.Context(), survey)
	if err != nil {
		h.logger.Error("failed to create survey set", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toSurveyResponse(saved))
}

// ListSurveys returns all survey sets, newest first.
func (h *Admin) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveys.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list survey sets", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]surveyResponse, 0, len(surveys))
	for _, survey := range surveys {
		out = append(out, toSurveyResponse(survey))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetSurvey returns one survey set by id.
func (h *Admin) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid survey id")
		return
	}

	survey, err := h.surveys.GetByID(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "survey not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get survey set", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSurveyResponse(survey))
}

// DeactivateSurvey flags a survey set inactive.
func (h *Admin) DeactivateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid survey id")
		return
	}

	err = h.surveys.Deactivate(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "survey not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to deactivate survey set", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type responseResponse struct {
	ID               uuid.UUID `json:"id"`
	SurveySetID      uuid.UUID `json:"survey_set_id"`
	ParticipantEmail string    `json:"participant_email"`
	Answers          []bool    `json:"answers"`
	CompletedAt      time.Time `json:"completed_at"`
}

// ListResponses returns all recorded responses for a survey set.
func (h *Admin) ListResponses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid survey id")
		return
	}

	responses, err := h.responses.ListBySurvey(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list responses", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]responseResponse, 0, len(responses))
	for _, response := range responses {
		out = append(out, responseResponse{
			ID:               response.ID,
			SurveySetID:      response.SurveySetID,
			ParticipantEmail: response.ParticipantEmail,
			Answers:          response.Answers[:],
			CompletedAt:      response.CompletedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
