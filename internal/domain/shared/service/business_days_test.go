package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"friday plus one is monday", date(2024, time.March, 1), 1, date(2024, time.March, 4)},
		{"monday plus five is next monday", date(2024, time.March, 4), 5, date(2024, time.March, 11)},
		{"zero keeps start", date(2024, time.March, 2), 0, date(2024, time.March, 2)},
		{"negative keeps start", date(2024, time.March, 4), -3, date(2024, time.March, 4)},
		{"saturday plus one is monday", date(2024, time.March, 2), 1, date(2024, time.March, 4)},
		{"crosses month end", date(2024, time.January, 30), 3, date(2024, time.February, 2)},
		{"thirty business days", date(2024, time.March, 4), 30, date(2024, time.April, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddBusinessDays(tt.start, tt.n)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestAddBusinessDays_PreservesTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.March, 1, 17, 45, 0, 0, time.UTC)
	got := AddBusinessDays(start, 2)
	assert.Equal(t, 17, got.Hour())
	assert.Equal(t, 45, got.Minute())
	assert.Equal(t, time.Tuesday, got.Weekday())
}

func TestIsBusinessDay(t *testing.T) {
	assert.True(t, IsBusinessDay(date(2024, time.March, 1)))
	assert.False(t, IsBusinessDay(date(2024, time.March, 2)))
	assert.False(t, IsBusinessDay(date(2024, time.March, 3)))
}
