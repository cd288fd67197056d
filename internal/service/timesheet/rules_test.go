package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name   string
		date   time.Time
		monday string
		sunday string
	}{
		{"monday", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), "2024-03-04", "2024-03-10"},
		{"sunday belongs to the previous monday", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "2024-03-04", "2024-03-10"},
		{"week across a year boundary", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2024-12-30", "2025-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := weekBounds(tt.date)
			assert.Equal(t, tt.monday, from.Format(time.DateOnly))
			assert.Equal(t, tt.sunday, to.Format(time.DateOnly))
		})
	}
}

func TestMonthBounds(t *testing.T) {
	from, to := monthBounds(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", from.Format(time.DateOnly))
	assert.Equal(t, "2024-02-29", to.Format(time.DateOnly))
}
