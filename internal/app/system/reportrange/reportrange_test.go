package reportrange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate_Explicit(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"2024-01-01-2024-01-31", "01/01/2024-31/01/2024", "1/1/2024 - 31/1/2024"} {
		r, err := ParseDate(in, now, time.UTC)
		require.NoError(t, err, in)
		assert.Equal(t, day(2024, 1, 1), *r.From, in)
		assert.Equal(t, day(2024, 2, 1), *r.To, in)
	}
}

func TestParseDate_Named(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	// 2024-01-10 20:00 UTC is already Thursday 2024-01-11 in Kolkata.
	now := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

	r, err := ParseDate("week", now, kolkata)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 8), *r.From)
	assert.Equal(t, day(2024, 1, 15), *r.To)

	r, err = ParseDate("month", now, kolkata)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 1), *r.From)
	assert.Equal(t, day(2024, 2, 1), *r.To)

	r, err = ParseDate("YEAR", now, kolkata)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 1), *r.From)
	assert.Equal(t, day(2025, 1, 1), *r.To)

	r, err = ParseDate("all", now, kolkata)
	require.NoError(t, err)
	assert.True(t, r.IsAll())
}

func TestParseDate_WeekStartsMonday(t *testing.T) {
	sunday := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	r, err := ParseDate("week", sunday, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 8), *r.From)
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"yesterday", "2024-01-31-2024-01-01", "32/01/2024-01/02/2024", "2024-01-01"} {
		_, err := ParseDate(in, time.Now(), time.UTC)
		assert.Error(t, err, in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		min, max int64
		hasMin   bool
		hasMax   bool
	}{
		{"below-1000", 0, 999, false, true},
		{"1000-9999", 1000, 9999, true, true},
		{"10000-99999", 10000, 99999, true, true},
		{"100000-plus", 100000, 0, true, false},
		{"250 - 1,500", 250, 1500, true, true},
	}
	for _, tt := range tests {
		r, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		if tt.hasMin {
			require.NotNil(t, r.Min, tt.in)
			assert.Equal(t, tt.min, *r.Min, tt.in)
		} else {
			assert.Nil(t, r.Min, tt.in)
		}
		if tt.hasMax {
			require.NotNil(t, r.Max, tt.in)
			assert.Equal(t, tt.max, *r.Max, tt.in)
		} else {
			assert.Nil(t, r.Max, tt.in)
		}
	}

	r, err := ParseAmount("all")
	require.NoError(t, err)
	assert.True(t, r.IsAll())

	for _, in := range []string{"lots", "below-x", "9-1", "x-plus"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}
