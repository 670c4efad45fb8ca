package patient

import (
	"testing"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
)

func TestSexValues(t *testing.T) {
	tests := []struct {
		sex      Sex
		expected string
	}{
		{SexMale, "male"},
		{SexFemale, "female"},
		{SexOther, "other"},
	}

	for _, tt := range tests {
		t.Run(string(tt.sex), func(t *testing.T) {
			if string(tt.sex) != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, tt.sex)
			}
		})
	}
}

func TestPatientCreation(t *testing.T) {
	clinicID := types.NewID()

	p := Patient{
		ID:        types.NewID(),
		Name:      "Maria Lopez",
		Phone:     "+52 961 123 4567",
		Email:     "maria.lopez@example.com",
		Age:       34,
		Sex:       SexFemale,
		HeightCm:  162.5,
		ClinicID:  clinicID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if p.ID.IsZero() {
		t.Error("Patient ID should not be zero")
	}

	if p.Name != "Maria Lopez" {
		t.Errorf("Expected name 'Maria Lopez', got '%s'", p.Name)
	}

	if p.Age != 34 {
		t.Errorf("Expected age 34, got %d", p.Age)
	}

	if p.Sex != SexFemale {
		t.Errorf("Expected sex female, got '%s'", p.Sex)
	}

	if p.HeightCm != 162.5 {
		t.Errorf("Expected height 162.5, got %f", p.HeightCm)
	}

	if p.ClinicID != clinicID {
		t.Error("Clinic ID mismatch")
	}
}

func TestCreatePatientRequest(t *testing.T) {
	req := CreatePatientRequest{
		Name:     "Juan Perez",
		Phone:    "+52 961 765 4321",
		Email:    "juan.perez@example.com",
		Age:      45,
		Sex:      SexMale,
		HeightCm: 175,
	}

	if req.Name == "" {
		t.Error("Name should not be empty")
	}

	if req.Sex != SexMale {
		t.Errorf("Expected sex male, got '%s'", req.Sex)
	}

	if req.HeightCm != 175 {
		t.Errorf("Expected height 175, got %f", req.HeightCm)
	}
}

func TestUpdatePatientRequest(t *testing.T) {
	newName := "Juan Perez Garcia"
	newAge := 46
	newHeight := 176.0

	req := UpdatePatientRequest{
		Name:     &newName,
		Age:      &newAge,
		HeightCm: &newHeight,
	}

	if req.Name == nil || *req.Name != newName {
		t.Error("Name should be set correctly")
	}

	if req.Age == nil || *req.Age != 46 {
		t.Error("Age should be set correctly")
	}

	if req.Phone != nil {
		t.Error("Unset fields should stay nil")
	}
}

func TestListPatientsFilter(t *testing.T) {
	clinicID := types.NewID()

	filter := ListPatientsFilter{
		ClinicID: &clinicID,
		Search:   "Lopez",
		Limit:    20,
		Offset:   10,
	}

	if filter.ClinicID == nil || *filter.ClinicID != clinicID {
		t.Error("Clinic ID filter should be set correctly")
	}

	if filter.Search != "Lopez" {
		t.Errorf("Expected search 'Lopez', got '%s'", filter.Search)
	}

	if filter.Limit != 20 {
		t.Errorf("Expected limit 20, got %d", filter.Limit)
	}
}

func TestCacheKey(t *testing.T) {
	id := types.MustParseID("11111111-2222-3333-4444-555555555555")

	key := cacheKey(id)
	expected := "patient:11111111-2222-3333-4444-555555555555"

	if key != expected {
		t.Errorf("Expected '%s', got '%s'", expected, key)
	}
}
