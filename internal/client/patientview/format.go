package patientview

import "time"

// acceptedDateLayouts covers the timestamp shapes the backend and the
// analyzer stations produce
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a date value as zero-padded YYYY-MM-DD in the
// device's local calendar. Values that cannot be parsed are returned
// unchanged.
func FormatDate(value string) string {
	for _, layout := range acceptedDateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.Local()
		}
		return t.Format("2006-01-02")
	}
	return value
}

// FormatDateAndTime renders a date and a time-of-day as a single
// display string, e.g. "2024-03-05 14:30". The time component is
// already display-ready and is passed through.
func FormatDateAndTime(date, timeOfDay string) string {
	return FormatDate(date) + " " + timeOfDay
}
