package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
)

type errorBody struct {
	Error string `json:"error"`
}

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("failed to write response: %v", err)
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	return true
}

var badRequest = []error{
	assignment.ErrAssignmentWindowClosed,
	assignment.ErrInsufficientTasks,
	assignment.ErrNoEligibleParticipants,
	assignment.ErrQuotaExceeded,
	assignment.ErrParticipantNotVerified,
	assignment.ErrInvalidStateTransition,
	assignment.ErrSubmissionClosed,
	assignment.ErrInvalidScore,
	assignment.ErrNotLatest,
	assignment.ErrEnrollmentClosed,
	assignment.ErrHackathonFull,
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, assignment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assignment.ErrDuplicatePair), errors.Is(err, assignment.ErrAlreadyEnrolled):
		return http.StatusConflict
	case errors.Is(err, assignment.ErrNotOwner):
		return http.StatusForbidden
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError maps domain errors to a status. Internal errors are logged
// and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(r, err)
	writeJSON(w, status, errorBody{Error: msg})
}

func errorStatus(r *http.Request, err error) (int, string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		return status, "internal error"
	}
	return status, err.Error()
}
