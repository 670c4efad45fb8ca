package api

import (
	"context"
	"fmt"
	"time"

	"github.com/NoeOnDev/MoodProblemsApp/internal/client/patientview"
	"github.com/go-resty/resty/v2"
)

// Measurements mirrors the body composition values in a report payload
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

// Report is a full analysis report as served by the platform
type Report struct {
	HistoryID  int64  `json:"history_id"`
	PatientID  string `json:"patient_id"`
	DoctorName string `json:"doctor_name"`
	Date       string `json:"date"`
	Time       string `json:"time"`

	Measurements Measurements `json:"measurements"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type historyEnvelope struct {
	Data  []patientview.DiagnosisSummary `json:"data"`
	Total int                            `json:"total"`
}

// Client talks to the platform's REST API. It satisfies
// patientview.Service.
type Client struct {
	http *resty.Client
}

// New creates an API client. token may be empty for unauthenticated
// development servers.
func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	if token != "" {
		c.SetAuthToken(token)
	}

	return &Client{http: c}
}

// GetPatientData fetches a patient's demographic record
func (c *Client) GetPatientData(ctx context.Context, patientID string) (*patientview.PatientRecord, error) {
	var record patientview.PatientRecord

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&record).
		SetError(&errorBody{}).
		Get("/api/v1/patients/" + patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient data: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &record, nil
}

// GetPatientHistory fetches the diagnosis list for a patient. An empty
// list is returned as an empty, non-nil slice.
func (c *Client) GetPatientHistory(ctx context.Context, patientID string) ([]patientview.DiagnosisSummary, error) {
	var envelope historyEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetError(&errorBody{}).
		Get("/api/v1/patients/" + patientID + "/history")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch diagnosis history: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	if envelope.Data == nil {
		return []patientview.DiagnosisSummary{}, nil
	}
	return envelope.Data, nil
}

// GetReport fetches a full analysis report by history ID
func (c *Client) GetReport(ctx context.Context, historyID int64) (*Report, error) {
	var report Report

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&report).
		SetError(&errorBody{}).
		Get(fmt.Sprintf("/api/v1/history/%d", historyID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &report, nil
}

// apiError turns an error response into a message suitable for user
// display
func apiError(resp *resty.Response) error {
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode())
}
