package api

import (
	"net/http"

	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/directory"
)

func patientLookupHandler(dir directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		nom, prenom := q.Get("nom"), q.Get("prenom")
		if nom == "" || prenom == "" {
			handleError(w, r, clinic.Invalid("nom/prenom", "are required"))
			return
		}

		id, err := dir.LookupPatientID(r.Context(), nom, prenom)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, PatientLookupResponse{ID: id})
	}
}
