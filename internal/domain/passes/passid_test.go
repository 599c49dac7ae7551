package passes

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePassID(t *testing.T) {
	id := DerivePassID("cs_test_a1b2c3")

	assert.Len(t, id, PassIDLength)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), id)
	assert.Equal(t, id, DerivePassID("cs_test_a1b2c3"), "derivation must be stable")
	assert.NotEqual(t, id, DerivePassID("cs_test_a1b2c4"))
	assert.False(t, strings.Contains(id, "cs_test"))
}
