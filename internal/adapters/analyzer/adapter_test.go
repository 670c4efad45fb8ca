package analyzer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/history"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/config"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"go.uber.org/zap"
)

// fakeImporter records import calls and simulates patient matching
type fakeImporter struct {
	patients map[string]types.ID
	imported []*history.AnalysisReport
	// session IDs already present
	existing map[string]bool
}

func (f *fakeImporter) FindPatientByName(ctx context.Context, name string) (types.ID, error) {
	id, ok := f.patients[name]
	if !ok {
		return "", errors.NotFound("patient", name)
	}
	return id, nil
}

func (f *fakeImporter) ImportSession(ctx context.Context, report *history.AnalysisReport) (bool, error) {
	if f.existing[report.SourceSessionID] {
		return false, nil
	}
	report.HistoryID = int64(len(f.imported) + 1)
	f.imported = append(f.imported, report)
	return true, nil
}

func newTestAdapter(importer Importer) *Adapter {
	return New(config.AnalyzerConfig{
		StationName:  "station-test",
		SessionTable: "dbo.AnalysisSessions",
		PollInterval: time.Second,
	}, importer, nil, zap.NewNop())
}

func TestImportSessionMatched(t *testing.T) {
	patientID := types.NewID()
	importer := &fakeImporter{
		patients: map[string]types.ID{"Maria Lopez": patientID},
		existing: map[string]bool{},
	}
	adapter := newTestAdapter(importer)

	completed := time.Date(2026, 3, 5, 14, 30, 0, 0, time.Local)
	adapter.importSession(context.Background(), Session{
		SessionID:   "S-100",
		PatientName: "Maria Lopez",
		DoctorName:  "Dr. Ramirez",
		CompletedAt: completed,
		Measurements: history.Measurements{
			BMI:            26.8,
			PercentBodyFat: 25.7,
		},
	})

	if len(importer.imported) != 1 {
		t.Fatalf("Expected 1 imported session, got %d", len(importer.imported))
	}

	report := importer.imported[0]

	if report.PatientID != patientID {
		t.Error("Patient ID mismatch")
	}

	if report.Date != "2026-03-05" {
		t.Errorf("Expected date '2026-03-05', got '%s'", report.Date)
	}

	if report.Time != "14:30:00" {
		t.Errorf("Expected time '14:30:00', got '%s'", report.Time)
	}

	if report.SourceStation != "station-test" {
		t.Errorf("Expected station 'station-test', got '%s'", report.SourceStation)
	}

	if report.SourceSessionID != "S-100" {
		t.Errorf("Expected session ID 'S-100', got '%s'", report.SourceSessionID)
	}

	if report.Measurements.BMI != 26.8 {
		t.Errorf("Expected BMI 26.8, got %f", report.Measurements.BMI)
	}
}

func TestImportSessionUnmatchedPatient(t *testing.T) {
	importer := &fakeImporter{
		patients: map[string]types.ID{},
		existing: map[string]bool{},
	}
	adapter := newTestAdapter(importer)

	adapter.importSession(context.Background(), Session{
		SessionID:   "S-200",
		PatientName: "Unknown Person",
		CompletedAt: time.Now(),
	})

	if len(importer.imported) != 0 {
		t.Errorf("Unmatched session should not be imported, got %d", len(importer.imported))
	}
}

func TestImportSessionDuplicate(t *testing.T) {
	patientID := types.NewID()
	importer := &fakeImporter{
		patients: map[string]types.ID{"Juan Perez": patientID},
		existing: map[string]bool{"S-300": true},
	}
	adapter := newTestAdapter(importer)

	adapter.importSession(context.Background(), Session{
		SessionID:   "S-300",
		PatientName: "Juan Perez",
		CompletedAt: time.Now(),
	})

	if len(importer.imported) != 0 {
		t.Errorf("Duplicate session should not be imported again, got %d", len(importer.imported))
	}
}

func TestPollFailureKeepsCursor(t *testing.T) {
	adapter := newTestAdapter(&fakeImporter{})

	// A handle that fails on first use: nothing listens on port 1
	db, err := sql.Open("sqlserver", "server=127.0.0.1;port=1;database=none;user id=none;password=none")
	if err != nil {
		t.Fatalf("Failed to open handle: %v", err)
	}
	defer db.Close()
	adapter.db = db

	cursor := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	adapter.lastPoll = cursor

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	adapter.poll(ctx)

	if !adapter.lastPoll.Equal(cursor) {
		t.Errorf("Cursor must not advance on a failed poll, got %v", adapter.lastPoll)
	}
}

func TestAdapterNotRunningHealth(t *testing.T) {
	adapter := newTestAdapter(&fakeImporter{})

	if err := adapter.Health(context.Background()); err == nil {
		t.Error("Health should fail when adapter is not running")
	}

	if adapter.IsConnected() {
		t.Error("Adapter should not report connected before Start")
	}
}
