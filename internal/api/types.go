package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/visit"
)

// CreateAppointmentRequest accepts the legacy date/time names as aliases.
type CreateAppointmentRequest struct {
	Day  string `json:"day"`
	Slot string `json:"slot"`
	Note string `json:"note"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	LegacyID  uuid.UUID `json:"_id"`
	Day       string    `json:"day"`
	Slot      string    `json:"slot"`
	Note      string    `json:"note"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

type SlotResponse struct {
	Slot          string     `json:"slot"`
	Status        string     `json:"status"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	Note          string     `json:"note,omitempty"`
}

type AvailabilityResponse struct {
	Day   string         `json:"day"`
	Slots []SlotResponse `json:"slots"`
}

type CheckInRequest struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Motif     string `json:"motif"`
	PatientID string `json:"patientId"`
}

type UpdateMotifRequest struct {
	ID    string `json:"id"`
	Motif string `json:"motif"`
}

type VisitResponse struct {
	ID          uuid.UUID `json:"id"`
	LegacyID    uuid.UUID `json:"_id"`
	Nom         string    `json:"nom"`
	Prenom      string    `json:"prenom"`
	PatientID   string    `json:"patientId,omitempty"`
	Motif       string    `json:"motif"`
	CheckedInAt time.Time `json:"checkedInAt"`
	DateVisited time.Time `json:"dateVisited"`
}

// QueueEntryResponse is a visit of today's queue with its 1-based position.
type QueueEntryResponse struct {
	Position int `json:"position"`
	VisitResponse
}

type VisitMutationResponse struct {
	Message string        `json:"message"`
	Visit   VisitResponse `json:"visit"`
}

type PatientLookupResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		LegacyID:  a.ID,
		Day:       a.Day.String(),
		Slot:      string(a.Slot),
		Note:      a.Note,
		Date:      a.Day.String(),
		Time:      string(a.Slot),
		CreatedAt: a.CreatedAt,
	}
}

func toVisitResponse(v *visit.Visit) VisitResponse {
	return VisitResponse{
		ID:          v.ID,
		LegacyID:    v.ID,
		Nom:         v.Name.Nom,
		Prenom:      v.Name.Prenom,
		PatientID:   v.PatientRef,
		Motif:       string(v.Motif),
		CheckedInAt: v.CheckedInAt,
		// older clients filter on the UTC ISO prefix of this field
		DateVisited: v.CheckedInAt.UTC(),
	}
}
