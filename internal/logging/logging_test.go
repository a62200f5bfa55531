package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("prod", "debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("dev", "loud").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("dev", "").GetLevel())
}
