// Package query holds the tenant query layer's computations. The SQL that
// feeds them lives in internal/store; keeping the arithmetic here makes the
// invariants testable without a database.
package query

import (
	"time"

	"github.com/skillboard/skillboard/internal/store"
)

// bandLabels is the fixed top-to-bottom order of the age pyramid.
var bandLabels = []string{"60+", "55-59", "45-54", "35-44", "25-34", "<25"}

// Band is one age band of the pyramid, split by gender.
type Band struct {
	Tranche string `json:"tranche"`
	Femmes  int    `json:"femmes"`
	Hommes  int    `json:"hommes"`
}

// Pyramid is the age pyramid of a tenant's active employees.
type Pyramid struct {
	Bandes        []Band `json:"bandes"`
	TotalActifs   int    `json:"total_actifs"`
	UnknownBirth  int    `json:"unknown_birth"`
	UnknownGender int    `json:"unknown_gender"`
}

// BuildPyramid buckets active-employee demographics into the six fixed age
// bands. Employees with no birth date count in UnknownBirth; employees with
// an unrecognized gender count in UnknownGender; the categories are
// mutually exclusive so the counts always sum to TotalActifs.
func BuildPyramid(demographics []store.Demographic, now time.Time) Pyramid {
	p := Pyramid{Bandes: make([]Band, len(bandLabels))}
	for i, label := range bandLabels {
		p.Bandes[i].Tranche = label
	}

	for _, d := range demographics {
		p.TotalActifs++
		if d.DateNaissance == nil {
			p.UnknownBirth++
			continue
		}
		if d.Sexe != "F" && d.Sexe != "M" {
			p.UnknownGender++
			continue
		}
		band := &p.Bandes[bandIndex(years(*d.DateNaissance, now))]
		if d.Sexe == "F" {
			band.Femmes++
		} else {
			band.Hommes++
		}
	}
	return p
}

// years returns the number of whole years elapsed between birth and now.
func years(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	anniversary := birth.AddDate(age, 0, 0)
	if anniversary.After(now) {
		age--
	}
	return age
}

func bandIndex(age int) int {
	switch {
	case age >= 60:
		return 0
	case age >= 55:
		return 1
	case age >= 45:
		return 2
	case age >= 35:
		return 3
	case age >= 25:
		return 4
	default:
		return 5
	}
}
