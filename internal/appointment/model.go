package appointment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

// Operating hours: one slot on every hour from opening to closing inclusive.
const (
	OpeningHour = 9
	ClosingHour = 18
)

// Slot is an hourly mark such as "09:00".
type Slot string

// Slots returns the canonical slots of any clinic day, in order. It is
// recomputed on every call.
func Slots() []Slot {
	out := make([]Slot, 0, ClosingHour-OpeningHour+1)
	for h := OpeningHour; h <= ClosingHour; h++ {
		out = append(out, Slot(fmt.Sprintf("%02d:00", h)))
	}
	return out
}

// ParseSlot normalizes "9:00" or "09:00" into the canonical form and
// rejects anything outside operating hours.
func ParseSlot(raw string) (Slot, error) {
	raw = strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || mm != "00" || len(hh) == 0 || len(hh) > 2 {
		return "", clinic.Invalid("slot", fmt.Sprintf("%q is not an hourly slot", raw))
	}
	if strings.Trim(hh, "0123456789") != "" {
		return "", clinic.Invalid("slot", fmt.Sprintf("%q is not an hourly slot", raw))
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < OpeningHour || hour > ClosingHour {
		return "", clinic.Invalid("slot", fmt.Sprintf("%q is outside %02d:00-%02d:00", raw, OpeningHour, ClosingHour))
	}
	return Slot(fmt.Sprintf("%02d:00", hour)), nil
}

type SlotStatus string

const (
	SlotFree   SlotStatus = "free"
	SlotBooked SlotStatus = "booked"
)

type Appointment struct {
	ID        uuid.UUID
	Day       clinic.Date
	Slot      Slot
	Note      string
	CreatedAt time.Time
}

// SlotAvailability is one row of a day's booking grid.
type SlotAvailability struct {
	Slot          Slot
	Status        SlotStatus
	AppointmentID *uuid.UUID
	Note          string
}
