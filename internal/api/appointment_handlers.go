package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/clinic"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		rawDay := firstNonEmpty(req.Day, req.Date)
		if rawDay == "" {
			handleError(w, r, clinic.Invalid("day", "is required"))
			return
		}
		day, err := clinic.ParseDate(rawDay)
		if err != nil {
			handleError(w, r, err)
			return
		}

		appt, err := svc.Book(r.Context(), day, firstNonEmpty(req.Slot, req.Time), req.Note)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listDayAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := clinic.ParseDate(chi.URLParam(r, "day"))
		if err != nil {
			handleError(w, r, err)
			return
		}

		appts, err := svc.ListByDay(r.Context(), day)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := clinic.ParseDate(chi.URLParam(r, "day"))
		if err != nil {
			handleError(w, r, err)
			return
		}

		grid, err := svc.ListAvailability(r.Context(), day)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := AvailabilityResponse{Day: day.String(), Slots: make([]SlotResponse, 0, len(grid))}
		for _, entry := range grid {
			resp.Slots = append(resp.Slots, SlotResponse{
				Slot:          string(entry.Slot),
				Status:        string(entry.Status),
				AppointmentID: entry.AppointmentID,
				Note:          entry.Note,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// an id that does not parse cannot name a live appointment
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, appointment.ErrAppointmentNotFound)
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
