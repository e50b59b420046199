package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthKey(t *testing.T) {
	k, err := ParseMonthKey("2024-01")
	require.NoError(t, err)
	assert.Equal(t, MonthKey("2024-01"), k)

	for _, bad := range []string{"", "2024", "2024-13", "January 2024"} {
		_, err := ParseMonthKey(bad)
		assert.ErrorIs(t, err, ErrInvalidMonthKey, "input %q", bad)
	}
}

func TestMonthKeyPrev(t *testing.T) {
	assert.Equal(t, MonthKey("2023-12"), MonthKey("2024-01").Prev())
	assert.Equal(t, MonthKey("2024-01"), MonthKey("2024-02").Prev())
	assert.Equal(t, MonthKey(""), MonthKey("bogus").Prev())
}

func TestMonthKeyLabelAndDays(t *testing.T) {
	assert.Equal(t, "January 2024", MonthKey("2024-01").Label())
	assert.Equal(t, 31, MonthKey("2024-01").Days())
	assert.Equal(t, 29, MonthKey("2024-02").Days()) // leap year
	assert.Equal(t, 28, MonthKey("2023-02").Days())
	assert.Equal(t, 30, MonthKey("2024-04").Days())
}

func TestMonthKeyContains(t *testing.T) {
	k := MonthKey("2024-03")
	assert.True(t, k.Contains(NewDate(2024, 3, 1)))
	assert.True(t, k.Contains(NewDate(2024, 3, 31)))
	assert.False(t, k.Contains(NewDate(2024, 4, 1)))
}

func TestCurrentMonth(t *testing.T) {
	now := time.Date(2024, 7, 15, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, MonthKey("2024-07"), CurrentMonth(now))
}
