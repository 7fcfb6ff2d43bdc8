package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Init("debug", false)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Init("nonsense", true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Init("", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
