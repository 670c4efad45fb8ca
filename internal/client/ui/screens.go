package ui

import (
	"fmt"
	"strings"

	"github.com/NoeOnDev/MoodProblemsApp/internal/client/api"
	"github.com/NoeOnDev/MoodProblemsApp/internal/client/patientview"
)

// RenderPatientInfo renders the Patient Info screen from the
// coordinator's view state
func RenderPatientInfo(s patientview.State) string {
	var b strings.Builder

	if s.Loading {
		b.WriteString("Loading patient record...\n")
		return b.String()
	}

	if s.Patient == nil {
		b.WriteString("No patient record\n")
		return b.String()
	}

	p := s.Patient
	b.WriteString(fmt.Sprintf("Patient: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("  Age: %d   Sex: %s   Height: %.1f cm\n", p.Age, p.Sex, p.HeightCm))
	if p.Phone != "" {
		b.WriteString(fmt.Sprintf("  Phone: %s\n", p.Phone))
	}
	if p.Email != "" {
		b.WriteString(fmt.Sprintf("  Email: %s\n", p.Email))
	}

	b.WriteString("\nDiagnosis history")
	if s.Refreshing {
		b.WriteString(" (refreshing...)")
	}
	b.WriteString("\n")

	if len(s.Diagnoses) == 0 {
		b.WriteString("  No analyses recorded yet\n")
		return b.String()
	}

	for _, d := range s.Diagnoses {
		marker := "  "
		if s.PressedRowID != nil && *s.PressedRowID == d.HistoryID {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s#%d  %s\n", marker, d.HistoryID,
			patientview.FormatDateAndTime(d.Date, d.Time)))
	}

	return b.String()
}

// measurementRow pairs a label with a formatted value for the report
// table
type measurementRow struct {
	label string
	value string
	unit  string
}

// RenderReport renders a full analysis report
func RenderReport(patient *patientview.PatientRecord, report *api.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Analysis report #%d\n", report.HistoryID))
	if patient != nil {
		b.WriteString(fmt.Sprintf("Patient: %s  (%d, %s, %.1f cm)\n",
			patient.Name, patient.Age, patient.Sex, patient.HeightCm))
	}
	if report.DoctorName != "" {
		b.WriteString(fmt.Sprintf("Doctor:  %s\n", report.DoctorName))
	}
	b.WriteString(fmt.Sprintf("Date:    %s\n\n", patientview.FormatDateAndTime(report.Date, report.Time)))

	m := report.Measurements
	rows := []measurementRow{
		{"Fat free mass", fmt.Sprintf("%.1f", m.FatFreeMassKg), "kg"},
		{"Body fat mass", fmt.Sprintf("%.1f", m.BodyFatMassKg), "kg"},
		{"Skeletal muscle", fmt.Sprintf("%.1f", m.SkeletalMuscleKg), "kg"},
		{"Total body water", fmt.Sprintf("%.1f", m.TotalBodyWaterL), "L"},
		{"Intracellular water", fmt.Sprintf("%.1f", m.IntracellularWaterL), "L"},
		{"Extracellular water", fmt.Sprintf("%.1f", m.ExtracellularWaterL), "L"},
		{"Minerals", fmt.Sprintf("%.2f", m.MineralsKg), "kg"},
		{"Protein", fmt.Sprintf("%.1f", m.ProteinKg), "kg"},
		{"BMI", fmt.Sprintf("%.1f", m.BMI), ""},
		{"Percent body fat", fmt.Sprintf("%.1f", m.PercentBodyFat), "%"},
	}

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-22s %8s %s\n", row.label, row.value, row.unit))
	}

	return b.String()
}
