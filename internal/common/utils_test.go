package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("Pause irrigation to avoid overwatering", "Pause irrigation", "Postpone irrigation"))
	assert.True(t, HasAny("abc", "z", "b"))
	assert.False(t, HasAny("abc", "x", "y"))
	assert.False(t, HasAny("abc"))
	// The empty substring matches anything, as strings.Contains does.
	assert.True(t, HasAny("abc", ""))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-10, 0, 100))
	assert.Equal(t, 100, ClampInt(250, 0, 100))
	assert.Equal(t, 55, ClampInt(55, 0, 100))
	assert.Equal(t, 0, ClampInt(0, 0, 100))
	assert.Equal(t, 100, ClampInt(100, 0, 100))
}
