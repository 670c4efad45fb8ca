package history

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/auth"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
)

func TestDiagnosisSummary(t *testing.T) {
	s := DiagnosisSummary{
		HistoryID: 42,
		Date:      "2026-03-05",
		Time:      "14:30:00",
	}

	if s.HistoryID != 42 {
		t.Errorf("Expected history ID 42, got %d", s.HistoryID)
	}

	if s.Date != "2026-03-05" {
		t.Errorf("Expected date '2026-03-05', got '%s'", s.Date)
	}

	if s.Time != "14:30:00" {
		t.Errorf("Expected time '14:30:00', got '%s'", s.Time)
	}
}

func TestAnalysisReport(t *testing.T) {
	patientID := types.NewID()

	report := AnalysisReport{
		HistoryID:  7,
		PatientID:  patientID,
		DoctorName: "Dr. Ramirez",
		Date:       "2026-01-15",
		Time:       "09:05:30",
		Measurements: Measurements{
			FatFreeMassKg:       52.3,
			BodyFatMassKg:       18.1,
			SkeletalMuscleKg:    29.4,
			TotalBodyWaterL:     38.2,
			IntracellularWaterL: 24.1,
			ExtracellularWaterL: 14.1,
			MineralsKg:          3.6,
			ProteinKg:           10.5,
			BMI:                 26.8,
			PercentBodyFat:      25.7,
		},
		SourceStation: "station-1",
		CreatedAt:     time.Now(),
	}

	if report.PatientID != patientID {
		t.Error("Patient ID mismatch")
	}

	if report.DoctorName != "Dr. Ramirez" {
		t.Errorf("Expected doctor 'Dr. Ramirez', got '%s'", report.DoctorName)
	}

	if report.Measurements.BMI != 26.8 {
		t.Errorf("Expected BMI 26.8, got %f", report.Measurements.BMI)
	}

	if report.Measurements.PercentBodyFat != 25.7 {
		t.Errorf("Expected percent body fat 25.7, got %f", report.Measurements.PercentBodyFat)
	}
}

func TestValidTime(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"14:30:00", true},
		{"14:30", true},
		{"00:00:00", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"14.30", false},
		{"", false},
		{"noon", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := validTime(tt.input); got != tt.valid {
				t.Errorf("validTime(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestAccessEventCarriesActor(t *testing.T) {
	user := &auth.User{
		ID:       types.NewID(),
		UserType: "clinician",
		ClinicID: types.NewID(),
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/history/7", nil)
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	req = req.WithContext(ctx)

	event := accessEvent(req, "analysis.report.viewed", map[string]any{
		"history_id": int64(7),
	})

	if event.Type != "analysis.report.viewed" {
		t.Errorf("Expected type 'analysis.report.viewed', got '%s'", event.Type)
	}

	if event.Source != "history" {
		t.Errorf("Expected source 'history', got '%s'", event.Source)
	}

	if event.ActorID != user.ID {
		t.Error("Actor ID should come from the authenticated user")
	}

	if event.ActorType != "clinician" {
		t.Errorf("Expected actor type 'clinician', got '%s'", event.ActorType)
	}

	if event.ActorClinic != user.ClinicID {
		t.Error("Actor clinic should come from the authenticated user")
	}
}

func TestAccessEventUnauthenticatedIsSystem(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/history/7", nil)

	event := accessEvent(req, "analysis.history.viewed", map[string]any{
		"patient_id": types.NewID(),
	})

	if event.ActorType != "system" {
		t.Errorf("Expected actor type 'system', got '%s'", event.ActorType)
	}

	if !event.ActorID.IsZero() {
		t.Error("Unauthenticated reads should not carry an actor ID")
	}
}

func TestRecordAnalysisRequest(t *testing.T) {
	req := RecordAnalysisRequest{
		DoctorName: "Dr. Ortiz",
		Date:       "2026-02-20",
		Time:       "11:15",
		Measurements: Measurements{
			SkeletalMuscleKg: 31.2,
			BMI:              24.1,
		},
	}

	if req.Date == "" {
		t.Error("Date should not be empty")
	}

	if req.Time == "" {
		t.Error("Time should not be empty")
	}

	if req.Measurements.SkeletalMuscleKg != 31.2 {
		t.Errorf("Expected skeletal muscle 31.2, got %f", req.Measurements.SkeletalMuscleKg)
	}
}
