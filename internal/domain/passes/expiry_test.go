package passes

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeExpiry(t *testing.T) {
	start, err := ParseStartDate("2026-01-01")
	require.NoError(t, err)

	t.Run("15 days ends on the 15th local", func(t *testing.T) {
		exp, err := ComputeExpiry(start, 15)
		require.NoError(t, err)
		assert.Equal(t, "2026-01-15T18:29:59.999Z", exp.UTC().Format("2006-01-02T15:04:05.000Z"))
	})

	t.Run("single day pass expires the same local day", func(t *testing.T) {
		exp, err := ComputeExpiry(start, 1)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 1, 18, 29, 59, int(999*time.Millisecond), time.UTC), exp.UTC())
	})

	t.Run("crosses month and year boundaries", func(t *testing.T) {
		s, _ := ParseStartDate("2026-12-20")
		exp, err := ComputeExpiry(s, 30)
		require.NoError(t, err)
		assert.Equal(t, "2027-01-18", FormatDate(&exp))
	})

	t.Run("365 days across a leap year", func(t *testing.T) {
		s, _ := ParseStartDate("2028-01-01")
		exp, err := ComputeExpiry(s, 365)
		require.NoError(t, err)
		assert.Equal(t, "2028-12-30", FormatDate(&exp))
	})

	t.Run("independent of the zone start is expressed in", func(t *testing.T) {
		inUTC := start.UTC()
		a, _ := ComputeExpiry(start, 30)
		b, _ := ComputeExpiry(inUTC, 30)
		assert.True(t, a.Equal(b))
	})

	t.Run("non-positive days rejected", func(t *testing.T) {
		for _, d := range []int{0, -3} {
			_, err := ComputeExpiry(start, d)
			assert.True(t, errors.Is(err, ErrInvalidMetadata))
		}
	})
}

func TestParseValidityDays(t *testing.T) {
	n, err := ParseValidityDays(" 90 ")
	require.NoError(t, err)
	assert.Equal(t, 90, n)

	for _, raw := range []string{"", "abc", "0", "-1", "1.5"} {
		_, err := ParseValidityDays(raw)
		assert.ErrorIs(t, err, ErrInvalidMetadata, raw)
	}
}

func TestParseStartDate(t *testing.T) {
	d, err := ParseStartDate("2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC), d.UTC())

	for _, raw := range []string{"", "05/03/2026", "2026-13-01", "2026-03-05T00:00:00Z"} {
		_, err := ParseStartDate(raw)
		assert.ErrorIs(t, err, ErrInvalidMetadata, raw)
	}
}

func TestIsValidAt(t *testing.T) {
	exp := time.Date(2026, 1, 15, 18, 29, 59, 0, time.UTC)
	p := &Purchase{ExpiryDate: &exp}

	assert.True(t, p.IsValidAt(exp.Add(-time.Hour)))
	assert.True(t, p.IsValidAt(exp))
	assert.False(t, p.IsValidAt(exp.Add(time.Millisecond)))
	assert.False(t, (&Purchase{}).IsValidAt(exp))
}
