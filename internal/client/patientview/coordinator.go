package patientview

import (
	"context"
	"sync"
)

// PatientRecord is the demographic snapshot shown on the Patient Info
// screen. It is fetched once per screen lifetime and replaced
// wholesale, never partially mutated.
type PatientRecord struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	HeightCm float64 `json:"height_cm"`
}

// DiagnosisSummary is one row of the diagnosis list
type DiagnosisSummary struct {
	HistoryID int64  `json:"history_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// State is the view state owned by the coordinator.
// Loading is true only before the first patient-record fetch settles.
// Refreshing is true only during a user-initiated re-fetch of the
// diagnosis list; existing data stays visible while it is in flight.
type State struct {
	Loading      bool
	Refreshing   bool
	Patient      *PatientRecord
	Diagnoses    []DiagnosisSummary
	PressedRowID *int64
}

// Service is the patient-data backend consumed by the coordinator
type Service interface {
	GetPatientData(ctx context.Context, patientID string) (*PatientRecord, error)
	GetPatientHistory(ctx context.Context, patientID string) ([]DiagnosisSummary, error)
}

// Notifier surfaces a user-visible error alert
type Notifier interface {
	Notify(title, message string)
}

// Navigator lets the coordinator request a return to the previous
// screen when the record fetch fails
type Navigator interface {
	GoBack()
}

// Coordinator owns the Patient Info view state and orchestrates the
// two fetches that populate it
type Coordinator struct {
	svc       Service
	notifier  Notifier
	navigator Navigator
	patientID string

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// New creates a coordinator for the given patient
func New(svc Service, notifier Notifier, navigator Navigator, patientID string) *Coordinator {
	return &Coordinator{
		svc:       svc,
		notifier:  notifier,
		navigator: navigator,
		patientID: patientID,
	}
}

// OnChange registers a callback invoked after every state transition.
// The callback receives a snapshot and must not call back into the
// coordinator.
func (c *Coordinator) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns a snapshot of the current view state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs the two initial fetches concurrently and returns once
// both have settled. Loading flips to false when the record fetch
// settles, success or failure, independent of the list fetch.
func (c *Coordinator) Start(ctx context.Context) {
	c.update(func(s *State) {
		s.Loading = true
	})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		c.fetchRecord(ctx)
	}()

	go func() {
		defer wg.Done()
		c.fetchList(ctx)
	}()

	wg.Wait()
}

// Refresh re-fetches the diagnosis list only; the patient record is
// never re-fetched. Overlapping refreshes are tolerated: whichever
// result lands last wins.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.update(func(s *State) {
		s.Refreshing = true
	})

	c.fetchList(ctx)
}

// PressIn marks a row as pressed for transient visual feedback
func (c *Coordinator) PressIn(historyID int64) {
	c.update(func(s *State) {
		id := historyID
		s.PressedRowID = &id
	})
}

// PressOut clears the pressed row, whichever row it was
func (c *Coordinator) PressOut() {
	c.update(func(s *State) {
		s.PressedRowID = nil
	})
}

// Press clears the pressed row. Rows have no detail action yet, so
// this has no data effect.
func (c *Coordinator) Press(historyID int64) {
	c.PressOut()
}

// fetchRecord loads the patient record. A failure here makes the
// screen unusable: the error is surfaced and the navigator is asked to
// go back.
func (c *Coordinator) fetchRecord(ctx context.Context) {
	record, err := c.svc.GetPatientData(ctx, c.patientID)
	if err != nil {
		c.update(func(s *State) {
			s.Loading = false
		})
		c.notifier.Notify("Error", err.Error())
		c.navigator.GoBack()
		return
	}

	c.update(func(s *State) {
		s.Patient = record
		s.Loading = false
	})
}

// fetchList loads the diagnosis list. On failure the existing list is
// left untouched; only the refreshing flag is cleared.
func (c *Coordinator) fetchList(ctx context.Context) {
	diagnoses, err := c.svc.GetPatientHistory(ctx, c.patientID)
	if err != nil {
		c.update(func(s *State) {
			s.Refreshing = false
		})
		c.notifier.Notify("Error", err.Error())
		return
	}

	c.update(func(s *State) {
		s.Diagnoses = diagnoses
		s.Refreshing = false
	})
}

// update applies a mutation and notifies the change listener with the
// resulting snapshot
func (c *Coordinator) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot := c.state
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}
