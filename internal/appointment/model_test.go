package appointment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

func TestSlots(t *testing.T) {
	slots := Slots()
	require.Len(t, slots, 10)
	assert.Equal(t, Slot("09:00"), slots[0])
	assert.Equal(t, Slot("18:00"), slots[9])

	seen := make(map[Slot]bool)
	for _, s := range slots {
		assert.False(t, seen[s], "duplicate slot %s", s)
		seen[s] = true
	}
}

func TestParseSlot(t *testing.T) {
	valid := map[string]Slot{
		"09:00":   "09:00",
		"9:00":    "09:00",
		" 10:00 ": "10:00",
		"18:00":   "18:00",
	}
	for in, want := range valid {
		got, err := ParseSlot(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "08:00", "19:00", "10:30", "10", "+9:00", "ten:00", "100:00"} {
		_, err := ParseSlot(in)
		assert.True(t, errors.Is(err, clinic.ErrValidation), "expected validation error for %q", in)
	}
}
