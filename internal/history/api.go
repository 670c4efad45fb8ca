package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/auth"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/events"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/metrics"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the diagnosis history module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new history handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the report lookup routes, mounted at /history
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{historyID}", h.GetReport)
	return r
}

// PatientRoutes registers the patient-scoped routes, mounted at
// /patients/{patientID}/history
func (h *Handler) PatientRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListHistory)
	r.Post("/", h.RecordAnalysis)
	return r
}

// ListHistory lists the diagnosis summaries for a patient. An empty
// list is a normal response, not an error.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	patientID, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	summaries, err := h.repo.ListForPatient(r.Context(), patientID)
	if err != nil {
		metrics.RecordHistoryFetch("error")
		writeError(w, err)
		return
	}
	metrics.RecordHistoryFetch("ok")

	// Diagnosis reads go on the audit trail like patient-record reads
	if h.bus != nil {
		h.bus.Publish(r.Context(), accessEvent(r, "analysis.history.viewed", map[string]any{
			"patient_id": patientID,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  summaries,
		"total": len(summaries),
	})
}

// GetReport returns a full analysis report by history ID
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	historyID, err := strconv.ParseInt(chi.URLParam(r, "historyID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid history ID"))
		return
	}

	report, err := h.repo.GetReport(r.Context(), historyID)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		h.bus.Publish(r.Context(), accessEvent(r, "analysis.report.viewed", map[string]any{
			"history_id": report.HistoryID,
			"patient_id": report.PatientID,
		}))
	}

	writeJSON(w, http.StatusOK, report)
}

// RecordAnalysis stores a new analysis report for a patient
func (h *Handler) RecordAnalysis(w http.ResponseWriter, r *http.Request) {
	patientID, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	var req RecordAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"date": "date must be YYYY-MM-DD",
		}))
		return
	}
	if !validTime(req.Time) {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"time": "time must be HH:MM or HH:MM:SS",
		}))
		return
	}

	report := &AnalysisReport{
		PatientID:    patientID,
		DoctorName:   req.DoctorName,
		Date:         req.Date,
		Time:         req.Time,
		Measurements: req.Measurements,
	}

	if err := h.repo.Record(r.Context(), report); err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordAnalysisRecorded("api")

	if h.bus != nil {
		user := auth.GetUser(r.Context())
		actorID := types.ID("")
		actorClinic := types.ID("")
		if user != nil {
			actorID = user.ID
			actorClinic = user.ClinicID
		}

		event := events.NewEvent("analysis.recorded", "history", map[string]any{
			"history_id": report.HistoryID,
			"patient_id": report.PatientID,
			"date":       report.Date,
		}).WithActor(actorID, "clinician", actorClinic)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, report)
}

// accessEvent builds the audit event for a history read, attributed to
// the authenticated user or to the system when the request is
// unauthenticated
func accessEvent(r *http.Request, eventType string, data map[string]any) events.Event {
	user := auth.GetUser(r.Context())
	actorID := types.ID("")
	actorType := "system"
	actorClinic := types.ID("")
	if user != nil {
		actorID = user.ID
		actorType = user.UserType
		actorClinic = user.ClinicID
	}

	return events.NewEvent(eventType, "history", data).WithActor(actorID, actorType, actorClinic)
}

func validTime(s string) bool {
	if _, err := time.Parse("15:04:05", s); err == nil {
		return true
	}
	if _, err := time.Parse("15:04", s); err == nil {
		return true
	}
	return false
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
