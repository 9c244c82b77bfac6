// Package handlers exposes the assignment services over HTTP.
package handlers

import (
	"net/http"
	"net/netip"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/reports"
	"github.com/sirdesai22/hackathon-tasks/internal/services"
	"github.com/sirdesai22/hackathon-tasks/internal/workers"
)

type API struct {
	DB   *gorm.DB
	Auth Auth
	// TrustedProxies may set X-Forwarded-For and X-Real-IP.
	TrustedProxies []netip.Prefix
	Assignments    *services.AssignmentService
	Submissions    *services.SubmissionService
	Enrollments    *services.EnrollmentService
	Reports        *reports.Store
	Worker         *workers.SyncWorker
}

// Routes returns the instrumented mux. Metrics are public; everything
// under /api requires a principal.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	admin := []models.Role{models.RoleAdmin}
	staff := []models.Role{models.RoleAdmin, models.RoleJudge}
	participant := []models.Role{models.RoleParticipant}
	judge := []models.Role{models.RoleJudge}

	a.route(mux, "POST /api/assignments/manual", a.assignManual, admin)
	a.route(mux, "POST /api/assignments/random", a.assignBatch(models.MethodRandom), admin)
	a.route(mux, "POST /api/assignments/smart", a.assignBatch(models.MethodSmart), admin)
	a.route(mux, "PUT /api/assignments/{id}/reassign", a.reassign, admin)
	a.route(mux, "DELETE /api/assignments/{id}", a.unassign, admin)

	a.route(mux, "GET /api/hackathons/{id}/assignments", a.listByHackathon, staff)
	a.route(mux, "GET /api/hackathons/{id}/summary", a.summary, staff)
	a.route(mux, "POST /api/hackathons/{id}/enroll", a.enroll, participant)

	a.route(mux, "GET /api/my-assignments", a.myAssignments, participant)
	a.route(mux, "POST /api/submissions", a.submit, participant)
	a.route(mux, "POST /api/submissions/{id}/evaluate", a.evaluate, judge)

	a.route(mux, "GET /api/outbox", a.listOutbox, admin)
	a.route(mux, "GET /api/dlq", a.listDLQ, admin)
	a.route(mux, "POST /api/retry/{id}", a.retryDLQ, admin)

	return Instrument(mux)
}

func (a *API) route(mux *http.ServeMux, pattern string, h http.HandlerFunc, roles []models.Role) {
	mux.Handle(pattern, a.Auth.Authenticate(SourceIP(a.TrustedProxies)(RequireRole(h, roles...))))
}

func principal(r *http.Request) Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

type manualRequest struct {
	HackathonID   uuid.UUID `json:"hackathon_id" validate:"required"`
	TaskID        uuid.UUID `json:"task_id" validate:"required"`
	ParticipantID uuid.UUID `json:"participant_id" validate:"required"`
}

func (a *API) assignManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := a.Assignments.AssignManual(r.Context(), req.HackathonID, req.TaskID, req.ParticipantID, principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type batchRequest struct {
	HackathonID uuid.UUID `json:"hackathon_id" validate:"required"`
}

func (a *API) assignBatch(method models.AssignmentMethod) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if !decode(w, r, &req) {
			return
		}
		run := a.Assignments.AssignRandom
		if method == models.MethodSmart {
			run = a.Assignments.AssignSmart
		}
		out, err := run(r.Context(), req.HackathonID, principal(r).UserID)
		if err != nil && out != nil {
			// rows committed before the failure stay; report them
			status, msg := errorStatus(r, err)
			writeJSON(w, status, batchError{Error: msg, BatchResult: out})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type batchError struct {
	Error string `json:"error"`
	*services.BatchResult
}

type reassignRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" validate:"required"`
}

func (a *API) reassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reassignRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := a.Assignments.Reassign(r.Context(), id, req.ParticipantID, principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) unassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := a.Assignments.Unassign(r.Context(), id, principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) listByHackathon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := a.Assignments.ListByHackathon(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := a.Reports.HackathonSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	load, err := a.Reports.TaskLoad(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": sum, "tasks": load})
}

func (a *API) enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := a.Enrollments.Enroll(r.Context(), id, principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *API) myAssignments(w http.ResponseWriter, r *http.Request) {
	out, err := a.Assignments.ListForParticipant(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type submitRequest struct {
	AssignmentID uuid.UUID `json:"assignment_id" validate:"required"`
	URL          string    `json:"url" validate:"required,url"`
	Description  string    `json:"description" validate:"max=2000"`
}

func (a *API) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := a.Submissions.Submit(r.Context(), req.AssignmentID, principal(r).UserID, req.URL, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type evaluateRequest struct {
	// range is enforced by the service so the error matches ErrInvalidScore
	Score    int    `json:"score"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func (a *API) evaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := a.Submissions.Evaluate(r.Context(), id, principal(r).UserID, req.Score, req.Feedback)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) listOutbox(w http.ResponseWriter, r *http.Request) {
	var outboxes []models.Outbox
	if err := a.DB.WithContext(r.Context()).Order("id desc").Limit(100).Find(&outboxes).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outboxes)
}

func (a *API) listDLQ(w http.ResponseWriter, r *http.Request) {
	var dlq []models.DLQ
	if err := a.DB.WithContext(r.Context()).Order("id desc").Limit(100).Find(&dlq).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dlq)
}

func (a *API) retryDLQ(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var d models.DLQ
	if err := a.DB.WithContext(r.Context()).First(&d, "id = ?", id).Error; err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: assignment.ErrNotFound.Error()})
		return
	}
	if d.Resolved {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already resolved"})
		return
	}
	if err := a.Worker.RetryOne(r.Context(), d); err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "retry failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retried"})
}
