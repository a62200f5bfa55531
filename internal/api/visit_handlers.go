package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/directory"
	"github.com/hackgods/clinic-operations/internal/visit"
)

func checkInHandler(svc *visit.Service, dir directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckInRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		patientRef := strings.TrimSpace(req.PatientID)
		if patientRef == "" && dir != nil && req.Nom != "" && req.Prenom != "" {
			patientRef = lookupPatientRef(r, dir, req.Nom, req.Prenom)
		}

		v, err := svc.CheckIn(r.Context(), visit.CheckIn{
			Name:       visit.PatientName{Nom: req.Nom, Prenom: req.Prenom},
			Motif:      req.Motif,
			PatientRef: patientRef,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toVisitResponse(v))
	}
}

// lookupPatientRef enriches a check-in with the directory id. A missing or
// unreachable directory entry never blocks the check-in.
func lookupPatientRef(r *http.Request, dir directory.Directory, nom, prenom string) string {
	id, err := dir.LookupPatientID(r.Context(), nom, prenom)
	if err != nil {
		if !errors.Is(err, clinic.ErrNotFound) {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("patient directory lookup failed")
		}
		return ""
	}
	return id
}

func listVisitsHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visits, err := svc.ListAll(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := make([]VisitResponse, 0, len(visits))
		for i := range visits {
			resp = append(resp, toVisitResponse(&visits[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func todayQueueHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visits, err := svc.ListToday(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := make([]QueueEntryResponse, 0, len(visits))
		for i := range visits {
			resp = append(resp, QueueEntryResponse{
				Position:      i + 1,
				VisitResponse: toVisitResponse(&visits[i]),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateMotifHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateMotifRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(req.ID))
		if err != nil {
			handleError(w, r, visit.ErrVisitNotFound)
			return
		}

		v, err := svc.UpdateMotif(r.Context(), id, req.Motif)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, VisitMutationResponse{
			Message: "Motif updated successfully",
			Visit:   toVisitResponse(v),
		})
	}
}

func removeVisitByNameHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := visit.PatientName{Nom: q.Get("nom"), Prenom: q.Get("prenom")}

		v, err := svc.Remove(r.Context(), name)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, VisitMutationResponse{
			Message: "Visit removed successfully",
			Visit:   toVisitResponse(v),
		})
	}
}

func removeVisitByIDHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, visit.ErrVisitNotFound)
			return
		}

		v, err := svc.RemoveByID(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, VisitMutationResponse{
			Message: "Visit removed successfully",
			Visit:   toVisitResponse(v),
		})
	}
}
