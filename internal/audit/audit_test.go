package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/events"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
)

func TestNewEntryComputesHash(t *testing.T) {
	actorID := types.NewID()
	resourceID := types.NewID()

	entry := NewEntry(
		ActorTypeClinician,
		actorID,
		nil,
		ActionPatientRecordViewed,
		"patient",
		&resourceID,
		map[string]any{"patient_id": resourceID.String()},
		"",
	)

	if entry.Hash == "" {
		t.Error("Entry hash should not be empty")
	}

	if !entry.VerifyHash() {
		t.Error("Fresh entry should verify its own hash")
	}
}

func TestEntryHashDetectsTampering(t *testing.T) {
	actorID := types.NewID()

	entry := NewEntry(
		ActorTypeClinician,
		actorID,
		nil,
		ActionAnalysisRecorded,
		"analysis",
		nil,
		map[string]any{"history_id": float64(7)},
		"",
	)

	if !entry.VerifyHash() {
		t.Fatal("Entry should verify before tampering")
	}

	entry.Action = ActionAnalysisImported

	if entry.VerifyHash() {
		t.Error("Tampered entry should fail hash verification")
	}
}

func TestEntryHashSurvivesJSONRoundTrip(t *testing.T) {
	actorID := types.NewID()
	clinicID := types.NewID()

	entry := NewEntry(
		ActorTypeClinician,
		actorID,
		&clinicID,
		ActionPatientCreated,
		"patient",
		nil,
		map[string]any{"name": "Maria Lopez", "age": float64(34)},
		"prev-hash-value",
	)

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Failed to marshal entry: %v", err)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal entry: %v", err)
	}

	if !decoded.VerifyHash() {
		t.Error("Entry should verify after JSON round trip")
	}

	if decoded.Hash != entry.Hash {
		t.Errorf("Hash changed through round trip: %s vs %s", entry.Hash, decoded.Hash)
	}
}

func TestEntryChaining(t *testing.T) {
	actorID := types.NewID()

	first := NewEntry(ActorTypeSystem, actorID, nil, ActionAnalysisImported, "analysis", nil, nil, "")
	second := NewEntry(ActorTypeSystem, actorID, nil, ActionAnalysisImported, "analysis", nil, nil, first.Hash)

	if second.PrevHash != first.Hash {
		t.Error("Second entry should link to first entry's hash")
	}

	if first.Hash == second.Hash {
		t.Error("Distinct entries should have distinct hashes")
	}
}

func TestShortHash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"abc", "abc"},
		{"0123456789abcdef", "0123456789abcdef"},
		{"0123456789abcdef0123456789abcdef", "0123456789abcdef"},
	}

	for _, tt := range tests {
		if got := shortHash(tt.input); got != tt.expected {
			t.Errorf("shortHash(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	data := map[string]any{
		"zebra":  1,
		"apple":  "two",
		"nested": map[string]any{"b": 2, "a": 1},
	}

	first, err := canonicalJSON(data)
	if err != nil {
		t.Fatalf("canonicalJSON failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		next, err := canonicalJSON(data)
		if err != nil {
			t.Fatalf("canonicalJSON failed: %v", err)
		}
		if string(next) != string(first) {
			t.Fatalf("canonicalJSON not deterministic: %s vs %s", first, next)
		}
	}

	expected := `{"apple":"two","nested":{"a":1,"b":2},"zebra":1}`
	if string(first) != expected {
		t.Errorf("Expected %s, got %s", expected, first)
	}
}

func TestEventToEntry(t *testing.T) {
	s := &Subscriber{}

	actorID := types.NewID()
	clinicID := types.NewID()
	patientID := types.NewID()

	event := events.Event{
		ID:        "event-1",
		Type:      "patient.record.viewed",
		Source:    "patient",
		Timestamp: time.Now(),
		ActorID:   actorID,
		ActorType: "clinician",
		Data: map[string]any{
			"patient_id": patientID.String(),
		},
	}
	event.ActorClinic = clinicID

	entry := s.eventToEntry(event)
	if entry == nil {
		t.Fatal("Expected an entry for a domain event")
	}

	if entry.Action != "patient.record.viewed" {
		t.Errorf("Expected action 'patient.record.viewed', got '%s'", entry.Action)
	}

	if entry.ResourceType != "patient" {
		t.Errorf("Expected resource type 'patient', got '%s'", entry.ResourceType)
	}

	if entry.ResourceID == nil || entry.ResourceID.String() != patientID.String() {
		t.Error("Resource ID should be extracted from event data")
	}

	if entry.ActorType != ActorTypeClinician {
		t.Errorf("Expected actor type clinician, got '%s'", entry.ActorType)
	}

	if entry.ActorClinicID == nil || *entry.ActorClinicID != clinicID {
		t.Error("Actor clinic should be carried onto the entry")
	}
}

func TestEventToEntryHistoryRead(t *testing.T) {
	s := &Subscriber{}

	actorID := types.NewID()

	event := events.Event{
		Type:      "analysis.report.viewed",
		Source:    "history",
		Timestamp: time.Now(),
		ActorID:   actorID,
		ActorType: "clinician",
		Data: map[string]any{
			"history_id": float64(7),
			"patient_id": types.NewID().String(),
		},
	}

	entry := s.eventToEntry(event)
	if entry == nil {
		t.Fatal("History reads must land on the audit trail")
	}

	if entry.Action != "analysis.report.viewed" {
		t.Errorf("Expected action 'analysis.report.viewed', got '%s'", entry.Action)
	}

	if entry.ResourceType != "analysis" {
		t.Errorf("Expected resource type 'analysis', got '%s'", entry.ResourceType)
	}

	if entry.Changes["history_id"] != float64(7) {
		t.Error("Event data should be carried onto the entry")
	}
}

func TestEventToEntrySkipsUnstructuredTypes(t *testing.T) {
	s := &Subscriber{}

	event := events.Event{
		Type:      "heartbeat",
		Timestamp: time.Now(),
	}

	if entry := s.eventToEntry(event); entry != nil {
		t.Error("Events without a resource segment should be skipped")
	}
}

func TestEventToEntrySystemActor(t *testing.T) {
	s := &Subscriber{}

	event := events.Event{
		Type:      "analysis.imported",
		Timestamp: time.Now(),
		ActorType: "system",
		Data: map[string]any{
			"analysis_id": types.NewID().String(),
			"station":     "station-1",
		},
	}

	entry := s.eventToEntry(event)
	if entry == nil {
		t.Fatal("Expected an entry")
	}

	if entry.ActorType != ActorTypeSystem {
		t.Errorf("Expected actor type system, got '%s'", entry.ActorType)
	}
}
