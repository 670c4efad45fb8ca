package history

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for diagnosis history
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new history repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForPatient returns the diagnosis summaries for a patient in
// insertion order. An empty list is a valid result.
func (r *Repository) ListForPatient(ctx context.Context, patientID types.ID) ([]DiagnosisSummary, error) {
	query := `
		SELECT history_id, analysis_date, analysis_time
		FROM diagnosis_history
		WHERE patient_id = $1
		ORDER BY history_id`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list diagnosis history")
	}
	defer rows.Close()

	summaries := []DiagnosisSummary{}
	for rows.Next() {
		var s DiagnosisSummary
		var date time.Time
		if err := rows.Scan(&s.HistoryID, &date, &s.Time); err != nil {
			return nil, errors.Wrap(err, "failed to scan diagnosis summary")
		}
		s.Date = date.Format("2006-01-02")
		summaries = append(summaries, s)
	}

	return summaries, nil
}

// GetReport retrieves a full analysis report by history ID
func (r *Repository) GetReport(ctx context.Context, historyID int64) (*AnalysisReport, error) {
	query := `
		SELECT history_id, patient_id, doctor_name, analysis_date, analysis_time,
			fat_free_mass_kg, body_fat_mass_kg, skeletal_muscle_kg,
			total_body_water_l, intracellular_water_l, extracellular_water_l,
			minerals_kg, protein_kg, bmi, percent_body_fat,
			source_station, source_session_id, created_at
		FROM diagnosis_history
		WHERE history_id = $1`

	report := &AnalysisReport{}
	var date time.Time
	err := r.pool.QueryRow(ctx, query, historyID).Scan(
		&report.HistoryID, &report.PatientID, &report.DoctorName, &date, &report.Time,
		&report.Measurements.FatFreeMassKg, &report.Measurements.BodyFatMassKg,
		&report.Measurements.SkeletalMuscleKg,
		&report.Measurements.TotalBodyWaterL, &report.Measurements.IntracellularWaterL,
		&report.Measurements.ExtracellularWaterL,
		&report.Measurements.MineralsKg, &report.Measurements.ProteinKg,
		&report.Measurements.BMI, &report.Measurements.PercentBodyFat,
		&report.SourceStation, &report.SourceSessionID, &report.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("analysis report", strconv.FormatInt(historyID, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get analysis report")
	}

	report.Date = date.Format("2006-01-02")
	return report, nil
}

// Record inserts a new analysis report and fills in the assigned history ID
func (r *Repository) Record(ctx context.Context, report *AnalysisReport) error {
	query := `
		INSERT INTO diagnosis_history (
			patient_id, doctor_name, analysis_date, analysis_time,
			fat_free_mass_kg, body_fat_mass_kg, skeletal_muscle_kg,
			total_body_water_l, intracellular_water_l, extracellular_water_l,
			minerals_kg, protein_kg, bmi, percent_body_fat,
			source_station, source_session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING history_id, created_at`

	err := r.pool.QueryRow(ctx, query,
		report.PatientID, report.DoctorName, report.Date, report.Time,
		report.Measurements.FatFreeMassKg, report.Measurements.BodyFatMassKg,
		report.Measurements.SkeletalMuscleKg,
		report.Measurements.TotalBodyWaterL, report.Measurements.IntracellularWaterL,
		report.Measurements.ExtracellularWaterL,
		report.Measurements.MineralsKg, report.Measurements.ProteinKg,
		report.Measurements.BMI, report.Measurements.PercentBodyFat,
		report.SourceStation, report.SourceSessionID,
	).Scan(&report.HistoryID, &report.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.NotFound("patient", report.PatientID.String())
		}
		return errors.Wrap(err, "failed to record analysis")
	}

	return nil
}

// ImportSession inserts an analyzer-imported report, deduplicating on
// station + vendor session ID. Returns false when the session was
// already imported.
func (r *Repository) ImportSession(ctx context.Context, report *AnalysisReport) (bool, error) {
	query := `
		INSERT INTO diagnosis_history (
			patient_id, doctor_name, analysis_date, analysis_time,
			fat_free_mass_kg, body_fat_mass_kg, skeletal_muscle_kg,
			total_body_water_l, intracellular_water_l, extracellular_water_l,
			minerals_kg, protein_kg, bmi, percent_body_fat,
			source_station, source_session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (source_station, source_session_id) WHERE source_session_id <> ''
		DO NOTHING
		RETURNING history_id, created_at`

	err := r.pool.QueryRow(ctx, query,
		report.PatientID, report.DoctorName, report.Date, report.Time,
		report.Measurements.FatFreeMassKg, report.Measurements.BodyFatMassKg,
		report.Measurements.SkeletalMuscleKg,
		report.Measurements.TotalBodyWaterL, report.Measurements.IntracellularWaterL,
		report.Measurements.ExtracellularWaterL,
		report.Measurements.MineralsKg, report.Measurements.ProteinKg,
		report.Measurements.BMI, report.Measurements.PercentBodyFat,
		report.SourceStation, report.SourceSessionID,
	).Scan(&report.HistoryID, &report.CreatedAt)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return false, errors.NotFound("patient", report.PatientID.String())
		}
		return false, errors.Wrap(err, "failed to import analyzer session")
	}

	return true, nil
}

// FindPatientByName resolves a patient ID from an exact name match.
// The analyzer stations only record the patient's name.
func (r *Repository) FindPatientByName(ctx context.Context, name string) (types.ID, error) {
	var id types.ID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM patients WHERE name = $1 ORDER BY created_at LIMIT 1`, name,
	).Scan(&id)

	if err == pgx.ErrNoRows {
		return "", errors.NotFound("patient", name)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to find patient by name")
	}

	return id, nil
}
