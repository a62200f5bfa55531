package visit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

// Motif is the coded reason for a visit.
type Motif string

const (
	MotifControle Motif = "Controle"
	MotifVisite   Motif = "Visite"
	MotifOther    Motif = "Other Motif"
)

func Motifs() []Motif {
	return []Motif{MotifControle, MotifVisite, MotifOther}
}

// ParseMotif accepts one of the recognized codes, compared exactly.
func ParseMotif(raw string) (Motif, error) {
	raw = strings.TrimSpace(raw)
	for _, m := range Motifs() {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", clinic.Invalid("motif", fmt.Sprintf("%q is not one of %v", raw, Motifs()))
}

// PatientName is the (surname, given name) pair used as the queue's
// identity key. Comparison is exact and case-sensitive.
type PatientName struct {
	Nom    string
	Prenom string
}

func (n PatientName) Validate() error {
	if strings.TrimSpace(n.Nom) == "" {
		return clinic.Invalid("nom", "is required")
	}
	if strings.TrimSpace(n.Prenom) == "" {
		return clinic.Invalid("prenom", "is required")
	}
	return nil
}

func (n PatientName) String() string { return n.Nom + " " + n.Prenom }

type Visit struct {
	ID          uuid.UUID
	Seq         int64
	Name        PatientName
	PatientRef  string
	Motif       Motif
	CheckedInAt time.Time
}

// CheckIn is the input of a walk-in arrival.
type CheckIn struct {
	Name       PatientName
	Motif      string
	PatientRef string
}
