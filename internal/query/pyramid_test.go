package query_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/skillboard/skillboard/internal/query"
	"github.com/skillboard/skillboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func born(yearsAgo int) *time.Time {
	t := now.AddDate(-yearsAgo, 0, -30)
	return &t
}

func TestBuildPyramid_BandOrderIsFixed(t *testing.T) {
	p := query.BuildPyramid(nil, now)
	labels := make([]string, len(p.Bandes))
	for i, b := range p.Bandes {
		labels[i] = b.Tranche
	}
	assert.Equal(t, []string{"60+", "55-59", "45-54", "35-44", "25-34", "<25"}, labels)
	assert.Zero(t, p.TotalActifs)
}

func TestBuildPyramid_Scenario(t *testing.T) {
	// F aged 30, M aged 42, F with no birth date.
	demo := []store.Demographic{
		{Sexe: "F", DateNaissance: born(30)},
		{Sexe: "M", DateNaissance: born(42)},
		{Sexe: "F", DateNaissance: nil},
	}
	p := query.BuildPyramid(demo, now)

	require.Len(t, p.Bandes, 6)
	assert.Equal(t, query.Band{Tranche: "25-34", Femmes: 1, Hommes: 0}, p.Bandes[4])
	assert.Equal(t, query.Band{Tranche: "35-44", Femmes: 0, Hommes: 1}, p.Bandes[3])
	for _, i := range []int{0, 1, 2, 5} {
		assert.Zero(t, p.Bandes[i].Femmes)
		assert.Zero(t, p.Bandes[i].Hommes)
	}
	assert.Equal(t, 3, p.TotalActifs)
	assert.Equal(t, 1, p.UnknownBirth)
	assert.Equal(t, 0, p.UnknownGender)
}

func TestBuildPyramid_BandBoundaries(t *testing.T) {
	cases := []struct {
		age     int
		tranche string
	}{
		{24, "<25"}, {25, "25-34"}, {34, "25-34"}, {35, "35-44"},
		{44, "35-44"}, {45, "45-54"}, {54, "45-54"}, {55, "55-59"},
		{59, "55-59"}, {60, "60+"}, {75, "60+"},
	}
	for _, tc := range cases {
		p := query.BuildPyramid([]store.Demographic{{Sexe: "M", DateNaissance: born(tc.age)}}, now)
		for _, b := range p.Bandes {
			if b.Tranche == tc.tranche {
				assert.Equal(t, 1, b.Hommes, "age %d should land in %s", tc.age, tc.tranche)
			} else {
				assert.Zero(t, b.Hommes, "age %d must not land in %s", tc.age, b.Tranche)
			}
		}
	}
}

func TestBuildPyramid_BirthdayNotYetReached(t *testing.T) {
	// 25th birthday is tomorrow: still 24, lands in <25.
	birth := now.AddDate(-25, 0, 1)
	p := query.BuildPyramid([]store.Demographic{{Sexe: "F", DateNaissance: &birth}}, now)
	assert.Equal(t, 1, p.Bandes[5].Femmes)
}

func TestBuildPyramid_UnknownGender(t *testing.T) {
	demo := []store.Demographic{
		{Sexe: "", DateNaissance: born(40)},
		{Sexe: "x", DateNaissance: born(40)},
		{Sexe: "", DateNaissance: nil}, // unknown birth wins over unknown gender
	}
	p := query.BuildPyramid(demo, now)
	assert.Equal(t, 2, p.UnknownGender)
	assert.Equal(t, 1, p.UnknownBirth)
	assert.Equal(t, 3, p.TotalActifs)
}

func TestBuildPyramid_TotalsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	genders := []string{"F", "M", "", "?"}

	for run := 0; run < 50; run++ {
		var demo []store.Demographic
		for i := 0; i < rng.Intn(40); i++ {
			d := store.Demographic{Sexe: genders[rng.Intn(len(genders))]}
			if rng.Intn(5) > 0 {
				d.DateNaissance = born(rng.Intn(70))
			}
			demo = append(demo, d)
		}
		p := query.BuildPyramid(demo, now)

		sum := p.UnknownBirth + p.UnknownGender
		for _, b := range p.Bandes {
			sum += b.Femmes + b.Hommes
		}
		assert.Equal(t, p.TotalActifs, sum)
		assert.Equal(t, len(demo), p.TotalActifs)
	}
}
