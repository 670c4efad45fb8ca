package patientview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain date", "2024-03-05", "2024-03-05"},
		{"zero padding kept", "2024-01-09", "2024-01-09"},
		{"timestamp without zone", "2024-03-05T14:30:00", "2024-03-05"},
		{"space separated timestamp", "2024-03-05 14:30:00", "2024-03-05"},
		{"unparseable passes through", "yesterday", "yesterday"},
		{"empty passes through", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDate(tt.input))
		})
	}
}

func TestFormatDateUsesLocalCalendar(t *testing.T) {
	// A UTC instant near midnight can fall on a different calendar day
	// locally; the rendered date must use the device's local day.
	input := "2024-03-05T23:30:00Z"
	expected := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC).Local().Format("2006-01-02")

	assert.Equal(t, expected, FormatDate(input))

	offset := "2024-03-06T04:30:00+05:00"
	expectedOffset := time.Date(2024, 3, 6, 4, 30, 0, 0, time.FixedZone("", 5*3600)).
		Local().Format("2006-01-02")

	assert.Equal(t, expectedOffset, FormatDate(offset))
}

func TestFormatDateAndTime(t *testing.T) {
	assert.Equal(t, "2024-03-05 14:30", FormatDateAndTime("2024-03-05", "14:30"))
	assert.Equal(t, "2024-03-05 14:30:00", FormatDateAndTime("2024-03-05T09:00:00", "14:30:00"))
}
