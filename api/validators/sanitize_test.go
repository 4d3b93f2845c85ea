package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "colore", SanitizeString("  colore  ", 0))
	assert.Equal(t, "perch", SanitizeString("perché", 6))
	assert.Equal(t, "perché", SanitizeString("perché no", 7))
}
