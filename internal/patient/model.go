package patient

import (
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
)

// Sex is the biological sex recorded for body composition analysis
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Patient represents a patient enrolled at a clinic
type Patient struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"name"`
	Phone string   `json:"phone"`
	Email string   `json:"email"`

	// Demographics used by the analyzer
	Age      int     `json:"age"`
	Sex      Sex     `json:"sex"`
	HeightCm float64 `json:"height_cm"`

	ClinicID types.ID `json:"clinic_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePatientRequest is the request to register a patient
type CreatePatientRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=255"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email" validate:"email"`
	Age      int      `json:"age" validate:"min=0,max=150"`
	Sex      Sex      `json:"sex" validate:"required"`
	HeightCm float64  `json:"height_cm" validate:"min=0"`
	ClinicID types.ID `json:"clinic_id"`
}

// UpdatePatientRequest is the request to update a patient
type UpdatePatientRequest struct {
	Name     *string  `json:"name,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Age      *int     `json:"age,omitempty"`
	Sex      *Sex     `json:"sex,omitempty"`
	HeightCm *float64 `json:"height_cm,omitempty"`
}

// ListPatientsFilter defines filters for listing patients
type ListPatientsFilter struct {
	ClinicID *types.ID `json:"clinic_id,omitempty"`
	Search   string    `json:"search,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}
