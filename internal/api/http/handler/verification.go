package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
	"github.com/civicvoice/civicvoice-server/internal/service"
)

// Verification handles the out-of-band code issuance path.
type Verification struct {
	service *service.Verification
	logger  *logger.Logger
}

// NewVerification creates a Verification handler.
func NewVerification(service *service.Verification, logger *logger.Logger) *Verification {
	return &Verification{
		service: service,
		logger:  logger,
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCode issues a one-time code for the given email and delivers it.
// The code itself never appears in the response.
func (h *Verification) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.service.RequestCode(r.Context(), req.Email)
	if errors.Is(err, model.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err != nil {
		h.logger.Error("failed to issue verification code", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to deliver verification code")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "verification code sent"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
