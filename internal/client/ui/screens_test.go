package ui

import (
	"strings"
	"testing"

	"github.com/NoeOnDev/MoodProblemsApp/internal/client/api"
	"github.com/NoeOnDev/MoodProblemsApp/internal/client/patientview"
	"github.com/stretchr/testify/assert"
)

func TestRenderPatientInfoLoading(t *testing.T) {
	out := RenderPatientInfo(patientview.State{Loading: true})
	assert.Contains(t, out, "Loading patient record")
	assert.NotContains(t, out, "Diagnosis history")
}

func TestRenderPatientInfoWithRows(t *testing.T) {
	pressed := int64(2)
	state := patientview.State{
		Patient: &patientview.PatientRecord{
			Name: "Maria Lopez", Age: 34, Sex: "female", HeightCm: 162.5,
			Phone: "555-0100",
		},
		Diagnoses: []patientview.DiagnosisSummary{
			{HistoryID: 1, Date: "2024-03-05", Time: "14:30"},
			{HistoryID: 2, Date: "2024-04-12", Time: "09:15"},
		},
		PressedRowID: &pressed,
	}

	out := RenderPatientInfo(state)

	assert.Contains(t, out, "Patient: Maria Lopez")
	assert.Contains(t, out, "Phone: 555-0100")
	assert.Contains(t, out, "#1  2024-03-05 14:30")
	assert.Contains(t, out, "> #2  2024-04-12 09:15")
	assert.NotContains(t, out, "refreshing")
}

func TestRenderPatientInfoRefreshing(t *testing.T) {
	state := patientview.State{
		Patient:    &patientview.PatientRecord{Name: "Maria Lopez"},
		Refreshing: true,
	}

	out := RenderPatientInfo(state)
	assert.Contains(t, out, "(refreshing...)")
	assert.Contains(t, out, "No analyses recorded yet")
}

func TestRenderReport(t *testing.T) {
	report := &api.Report{
		HistoryID:  7,
		DoctorName: "Dr. Ramirez",
		Date:       "2024-03-05",
		Time:       "14:30:00",
		Measurements: api.Measurements{
			BMI:            26.8,
			PercentBodyFat: 25.7,
		},
	}
	patient := &patientview.PatientRecord{Name: "Maria Lopez", Age: 34, Sex: "female", HeightCm: 162.5}

	out := RenderReport(patient, report)

	assert.Contains(t, out, "Analysis report #7")
	assert.Contains(t, out, "Doctor:  Dr. Ramirez")
	assert.Contains(t, out, "2024-03-05 14:30:00")
	assert.True(t, strings.Contains(out, "BMI") && strings.Contains(out, "26.8"))
	assert.Contains(t, out, "Percent body fat")
}
