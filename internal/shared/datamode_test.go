package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDataMode(t *testing.T) {
	assert.Equal(t, ModeActive, ParseDataMode("A"))
	assert.Equal(t, ModeInactive, ParseDataMode("I"))
	assert.Equal(t, ModeDeleted, ParseDataMode("D"))
	assert.Equal(t, ModeActive, ParseDataMode(""))
	assert.Equal(t, ModeActive, ParseDataMode("X"))
}

func TestDataModeValid(t *testing.T) {
	assert.True(t, ModeActive.Valid())
	assert.True(t, ModeInactive.Valid())
	assert.True(t, ModeDeleted.Valid())
	assert.False(t, DataMode("Z").Valid())
}
