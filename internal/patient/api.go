package patient

import (
	"encoding/json"
	"net/http"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/auth"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/events"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/metrics"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the patient module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new patient handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the patient routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPatients)
	r.Post("/", h.CreatePatient)

	r.Route("/{patientID}", func(r chi.Router) {
		r.Get("/", h.GetPatient)
		r.Put("/", h.UpdatePatient)
		r.Delete("/", h.DeletePatient)
	})

	return r
}

// ListPatients lists patients
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := ListPatientsFilter{
		Search: r.URL.Query().Get("search"),
	}

	if c := r.URL.Query().Get("clinic_id"); c != "" {
		id, err := types.ParseID(c)
		if err != nil {
			writeError(w, errors.BadRequest("invalid clinic ID"))
			return
		}
		filter.ClinicID = &id
	}

	patients, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  patients,
		"total": total,
	})
}

// GetPatient gets a patient record by ID
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		metrics.RecordPatientFetch("error")
		writeError(w, err)
		return
	}
	metrics.RecordPatientFetch("ok")

	// Record reads of patient data for the audit trail
	if h.bus != nil {
		user := auth.GetUser(r.Context())
		actorID := types.ID("")
		actorType := "system"
		actorClinic := types.ID("")
		if user != nil {
			actorID = user.ID
			actorType = user.UserType
			actorClinic = user.ClinicID
		}

		event := events.NewEvent("patient.record.viewed", "patient", map[string]any{
			"patient_id": p.ID,
		}).WithActor(actorID, actorType, actorClinic)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, p)
}

// CreatePatient registers a new patient
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name == "" || req.Sex == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
			"sex":  "sex is required",
		}))
		return
	}

	p := &Patient{
		ID:       types.NewID(),
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Age:      req.Age,
		Sex:      req.Sex,
		HeightCm: req.HeightCm,
		ClinicID: req.ClinicID,
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		user := auth.GetUser(r.Context())
		actorID := types.ID("")
		if user != nil {
			actorID = user.ID
		}

		event := events.NewEvent("patient.created", "patient", map[string]any{
			"patient_id": p.ID,
			"name":       p.Name,
		}).WithActor(actorID, "clinician", p.ClinicID)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdatePatient updates a patient record
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Sex != nil {
		p.Sex = *req.Sex
	}
	if req.HeightCm != nil {
		p.HeightCm = *req.HeightCm
	}

	if err := h.repo.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// DeletePatient removes a patient
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
