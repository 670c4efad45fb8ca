package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, "")
}

func TestGetPatientData(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/patients/p-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "p-1",
			"name": "Maria Lopez",
			"phone": "555-0100",
			"email": "maria@example.com",
			"age": 34,
			"sex": "female",
			"height_cm": 162.5
		}`))
	})

	record, err := client.GetPatientData(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", record.Name)
	assert.Equal(t, 34, record.Age)
	assert.Equal(t, "female", record.Sex)
	assert.Equal(t, 162.5, record.HeightCm)
}

func TestGetPatientDataNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "patient with ID 'p-9' not found", "code": "NOT_FOUND"}`))
	})

	_, err := client.GetPatientData(context.Background(), "p-9")
	require.Error(t, err)
	assert.Equal(t, "patient with ID 'p-9' not found", err.Error())
}

func TestGetPatientHistory(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/patients/p-1/history", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"history_id": 1, "date": "2024-03-05", "time": "14:30"},
				{"history_id": 2, "date": "2024-04-12", "time": "09:15"}
			],
			"total": 2
		}`))
	})

	list, err := client.GetPatientHistory(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].HistoryID)
	assert.Equal(t, "2024-03-05", list[0].Date)
	assert.Equal(t, "14:30", list[0].Time)
}

func TestGetPatientHistoryEmpty(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "total": 0}`))
	})

	list, err := client.GetPatientHistory(context.Background(), "p-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetReport(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/history/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"history_id": 7,
			"patient_id": "p-1",
			"doctor_name": "Dr. Ramirez",
			"date": "2024-03-05",
			"time": "14:30:00",
			"measurements": {
				"bmi": 26.8,
				"percent_body_fat": 25.7,
				"total_body_water_l": 33.2
			}
		}`))
	})

	report, err := client.GetReport(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.HistoryID)
	assert.Equal(t, "Dr. Ramirez", report.DoctorName)
	assert.Equal(t, 26.8, report.Measurements.BMI)
	assert.Equal(t, 33.2, report.Measurements.TotalBodyWaterL)
}

func TestAuthTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "Maria Lopez"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	_, err := client.GetPatientData(context.Background(), "p-1")
	require.NoError(t, err)
}
