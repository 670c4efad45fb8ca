package history

import (
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
)

// Measurements holds the body composition values produced by a
// bio-impedance analysis session
type Measurements struct {
	FatFreeMassKg       float64 `json:"fat_free_mass_kg"`
	BodyFatMassKg       float64 `json:"body_fat_mass_kg"`
	SkeletalMuscleKg    float64 `json:"skeletal_muscle_kg"`
	TotalBodyWaterL     float64 `json:"total_body_water_l"`
	IntracellularWaterL float64 `json:"intracellular_water_l"`
	ExtracellularWaterL float64 `json:"extracellular_water_l"`
	MineralsKg          float64 `json:"minerals_kg"`
	ProteinKg           float64 `json:"protein_kg"`
	BMI                 float64 `json:"bmi"`
	PercentBodyFat      float64 `json:"percent_body_fat"`
}

// DiagnosisSummary is one row of a patient's diagnosis list. Date is
// calendar YYYY-MM-DD, Time is the wall clock string recorded by the
// analyzer.
type DiagnosisSummary struct {
	HistoryID int64  `json:"history_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// AnalysisReport is a full analysis record
type AnalysisReport struct {
	HistoryID  int64    `json:"history_id"`
	PatientID  types.ID `json:"patient_id"`
	DoctorName string   `json:"doctor_name"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`

	Measurements Measurements `json:"measurements"`

	// Provenance for analyzer-imported records
	SourceStation   string `json:"source_station,omitempty"`
	SourceSessionID string `json:"source_session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RecordAnalysisRequest is the request to record an analysis for a patient
type RecordAnalysisRequest struct {
	DoctorName   string       `json:"doctor_name"`
	Date         string       `json:"date" validate:"required"`
	Time         string       `json:"time" validate:"required"`
	Measurements Measurements `json:"measurements"`
}
