package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusesBefore(t *testing.T) {
	assert.Equal(t, []string{StatusCreated}, StatusesBefore(StatusPaid))
	assert.Equal(t, []string{StatusCreated, StatusPaid}, StatusesBefore(StatusIssued))
	assert.Equal(t, []string{StatusCreated, StatusPaid, StatusIssued}, StatusesBefore(StatusEmailSent))
	assert.Empty(t, StatusesBefore(StatusCreated))
	assert.Nil(t, StatusesBefore(StatusRefunded))
}

func TestAdvanced(t *testing.T) {
	assert.True(t, Advanced(StatusEmailSent, StatusIssued))
	assert.True(t, Advanced(StatusPaid, StatusPaid))
	assert.False(t, Advanced(StatusCreated, StatusPaid))
	assert.False(t, Advanced(StatusSuspended, StatusCreated))
}

func TestOnHappyPath(t *testing.T) {
	for _, s := range []string{StatusCreated, StatusPaid, StatusIssued, StatusEmailSent} {
		assert.True(t, OnHappyPath(s), s)
	}
	for _, s := range []string{StatusSuspended, StatusRefunded, StatusFailed, "bogus"} {
		assert.False(t, OnHappyPath(s), s)
	}
}

func TestIsAdminStatus(t *testing.T) {
	assert.True(t, IsAdminStatus(StatusSuspended))
	assert.True(t, IsAdminStatus(StatusPaid))
	assert.False(t, IsAdminStatus(StatusIssued))
	assert.False(t, IsAdminStatus(""))
}

func TestNormalizeTier(t *testing.T) {
	tier, ok := NormalizeTier(" PASS_30 ")
	assert.True(t, ok)
	assert.Equal(t, Tier30, tier)
	assert.Equal(t, 30, TierDays(tier))

	_, ok = NormalizeTier("pass_7")
	assert.False(t, ok)
	assert.Equal(t, 0, TierDays("pass_7"))
	assert.Equal(t, "Standard", TierLabel(""))
}
