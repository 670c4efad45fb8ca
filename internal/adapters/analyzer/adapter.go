package analyzer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/NoeOnDev/MoodProblemsApp/internal/history"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/config"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/events"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/metrics"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"go.uber.org/zap"
)

// Importer stores analyzer sessions as diagnosis history records
type Importer interface {
	FindPatientByName(ctx context.Context, name string) (types.ID, error)
	ImportSession(ctx context.Context, report *history.AnalysisReport) (bool, error)
}

// Session is one completed analysis session read from the vendor
// station database
type Session struct {
	SessionID   string
	PatientName string
	DoctorName  string
	CompletedAt time.Time

	Measurements history.Measurements
}

// Adapter polls the analyzer station's SQL Server database for
// completed sessions and imports them as diagnosis history records
type Adapter struct {
	db       *sql.DB
	config   config.AnalyzerConfig
	importer Importer
	bus      *events.Bus
	logger   *zap.Logger

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a new analyzer adapter. bus may be nil.
func New(cfg config.AnalyzerConfig, importer Importer, bus *events.Bus, logger *zap.Logger) *Adapter {
	return &Adapter{
		config:   cfg,
		importer: importer,
		bus:      bus,
		logger:   logger,
	}
}

// Start opens the station database connection and starts polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	if a.config.SSLMode != "disable" {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open station database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping station database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	a.logger.Info("analyzer adapter started",
		zap.String("station", a.config.StationName),
		zap.Duration("poll_interval", a.config.PollInterval))

	return nil
}

// Stop stops polling and closes the database connection
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks station database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return errors.Unavailable("analyzer adapter not running")
	}

	return a.db.PingContext(ctx)
}

// IsConnected returns connection status
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running && a.db != nil
}

// pollLoop imports new sessions on each tick
func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

// poll runs one poll cycle. The cursor only advances after a
// successful poll, so sessions completed during a failed window are
// picked up on the next tick.
func (a *Adapter) poll(ctx context.Context) {
	a.mu.RLock()
	since := a.lastPoll
	a.mu.RUnlock()

	polledAt := time.Now()

	if err := a.pollSessions(ctx, since); err != nil {
		a.logger.Warn("failed to poll analyzer sessions", zap.Error(err))
		return
	}

	a.mu.Lock()
	a.lastPoll = polledAt
	a.mu.Unlock()
}

// pollSessions reads sessions completed since the last poll and
// imports each one
func (a *Adapter) pollSessions(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT
			SessionID,
			PatientName,
			DoctorName,
			CompletedAt,
			FatFreeMassKg,
			BodyFatMassKg,
			SkeletalMuscleKg,
			TotalBodyWaterL,
			IntracellularWaterL,
			ExtracellularWaterL,
			MineralsKg,
			ProteinKg,
			BMI,
			PercentBodyFat
		FROM %s
		WHERE CompletedAt > @since
		ORDER BY CompletedAt ASC
	`, a.config.SessionTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s Session
		var doctorName sql.NullString
		var ffm, bfm, smm, tbw, icw, ecw, min, prot, bmi, pbf sql.NullFloat64

		err := rows.Scan(
			&s.SessionID,
			&s.PatientName,
			&doctorName,
			&s.CompletedAt,
			&ffm, &bfm, &smm, &tbw, &icw, &ecw, &min, &prot, &bmi, &pbf,
		)
		if err != nil {
			a.logger.Warn("failed to scan analyzer session", zap.Error(err))
			continue
		}

		if doctorName.Valid {
			s.DoctorName = doctorName.String
		}
		s.Measurements = history.Measurements{
			FatFreeMassKg:       ffm.Float64,
			BodyFatMassKg:       bfm.Float64,
			SkeletalMuscleKg:    smm.Float64,
			TotalBodyWaterL:     tbw.Float64,
			IntracellularWaterL: icw.Float64,
			ExtracellularWaterL: ecw.Float64,
			MineralsKg:          min.Float64,
			ProteinKg:           prot.Float64,
			BMI:                 bmi.Float64,
			PercentBodyFat:      pbf.Float64,
		}

		a.importSession(ctx, s)
	}

	return rows.Err()
}

// importSession matches the session to a patient and stores it.
// Sessions that cannot be matched are skipped; they stay in the
// station database and can be recorded manually.
func (a *Adapter) importSession(ctx context.Context, s Session) {
	station := a.config.StationName

	patientID, err := a.importer.FindPatientByName(ctx, s.PatientName)
	if err != nil {
		metrics.RecordAnalyzerImport(station, "unmatched")
		a.logger.Warn("no patient match for analyzer session",
			zap.String("session_id", s.SessionID),
			zap.String("patient_name", s.PatientName))
		return
	}

	local := s.CompletedAt.Local()
	report := &history.AnalysisReport{
		PatientID:       patientID,
		DoctorName:      s.DoctorName,
		Date:            local.Format("2006-01-02"),
		Time:            local.Format("15:04:05"),
		Measurements:    s.Measurements,
		SourceStation:   station,
		SourceSessionID: s.SessionID,
	}

	imported, err := a.importer.ImportSession(ctx, report)
	if err != nil {
		metrics.RecordAnalyzerImport(station, "error")
		a.logger.Error("failed to import analyzer session",
			zap.String("session_id", s.SessionID),
			zap.Error(err))
		return
	}

	if !imported {
		metrics.RecordAnalyzerImport(station, "duplicate")
		return
	}

	metrics.RecordAnalyzerImport(station, "imported")
	metrics.RecordAnalysisRecorded("analyzer")

	a.logger.Info("imported analyzer session",
		zap.String("session_id", s.SessionID),
		zap.Int64("history_id", report.HistoryID),
		zap.String("patient_id", patientID.String()))

	if a.bus != nil {
		event := events.NewEvent("analysis.imported", "analyzer", map[string]any{
			"history_id": report.HistoryID,
			"patient_id": patientID,
			"station":    station,
			"session_id": s.SessionID,
		}).WithActor(types.ID(""), "system", types.ID(""))

		a.bus.Publish(ctx, event)
	}
}
