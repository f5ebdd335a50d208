package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountDays(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day", day("2026-03-02"), day("2026-03-02"), 1},
		{"three days", day("2026-03-02"), day("2026-03-04"), 3},
		{"across month end", day("2026-01-30"), day("2026-02-02"), 4},
		{"leap day included", day("2028-02-28"), day("2028-03-01"), 3},
		{"time of day ignored", day("2026-03-02").Add(23 * time.Hour), day("2026-03-03").Add(time.Hour), 2},
		{"across DST change", time.Date(2026, 3, 28, 0, 0, 0, 0, time.FixedZone("CET", 3600)), time.Date(2026, 3, 30, 0, 0, 0, 0, time.FixedZone("CEST", 7200)), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountDays(tt.start, tt.end))
		})
	}
}

func TestType_IsValid(t *testing.T) {
	for _, lt := range AllTypes() {
		assert.True(t, lt.IsValid(), lt)
	}
	assert.False(t, Type("annual").IsValid())
	assert.False(t, Type("").IsValid())
}
