package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNIM(t *testing.T) {
	assert.True(t, ValidNIM("2021001"))
	assert.True(t, ValidNIM("21001234"))
	assert.False(t, ValidNIM(""))
	assert.False(t, ValidNIM("21A001"))
	assert.False(t, CompiledPatterns.AdvisoryNIM.MatchString("21001234"))
}

func TestValidPassword(t *testing.T) {
	assert.False(t, ValidPassword("abc"))
	assert.True(t, ValidPassword("abcd"))
	assert.True(t, ValidPassword("ääää"))
	assert.False(t, ValidPassword("  ab  "))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Budi"))
	assert.False(t, ValidName(""))
}
