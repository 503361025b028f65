// Package ingest accepts typed form payloads, validates them and persists
// one parent row plus N child rows in a single transaction, keeping the raw
// request body as an audit JSON blob.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/model"
	"gorm.io/gorm"
)

// Half-day periods, determined by the server hour relative to 13:00.
const (
	PeriodMorning   = "matin"
	PeriodAfternoon = "apres_midi"
)

// Allowed values of facturation_cible.
const (
	BillingClient = "client"
	BillingOpco   = "opco"
)

const tokenMinLen = 10

// Service is the form ingestion layer. The clock is injectable for the
// half-day rules.
type Service struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewService builds the ingestion service. clock may be nil (wall clock).
func NewService(db *gorm.DB, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: db, clock: clock}
}

// HalfDay returns the half-day period of t: before 13:00 local is morning.
func HalfDay(t time.Time) string {
	if t.Hour() < 13 {
		return PeriodMorning
	}
	return PeriodAfternoon
}

// canonicalJSON serializes the payload for the audit column. HTML escaping
// is disabled so Unicode survives verbatim.
func canonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", apperr.Wrap(apperr.Internal, "sérialisation json_raw", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// StagiairePayload is one trainee of a preparation submission.
type StagiairePayload struct {
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

// PreparationPayload is the body of POST /preparation.
type PreparationPayload struct {
	Token            string             `json:"token"`
	OpcoOui          bool               `json:"opco_oui"`
	NomOpco          string             `json:"nom_opco"`
	FacturationCible string             `json:"facturation_cible"`
	Stagiaires       []StagiairePayload `json:"stagiaires"`
}

func (p *PreparationPayload) validate() error {
	if len(strings.TrimSpace(p.Token)) < tokenMinLen {
		return apperr.Newf(apperr.BadRequest, "champ token invalide (longueur minimale %d)", tokenMinLen)
	}
	if p.FacturationCible != BillingClient && p.FacturationCible != BillingOpco {
		return apperr.New(apperr.BadRequest, "champ facturation_cible invalide (valeurs admises: client, opco)")
	}
	if p.OpcoOui && strings.TrimSpace(p.NomOpco) == "" {
		return apperr.New(apperr.BadRequest, "champ nom_opco requis lorsque opco_oui est vrai")
	}
	for _, s := range p.Stagiaires {
		if strings.TrimSpace(s.Nom) == "" || strings.TrimSpace(s.Prenom) == "" {
			return apperr.New(apperr.BadRequest, "champ stagiaires: nom et prenom requis")
		}
	}
	return nil
}

// Preparation inserts a preparation record with its trainees and returns
// the new parent identifier.
func (s *Service) Preparation(ctx context.Context, p *PreparationPayload) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	raw, err := canonicalJSON(p)
	if err != nil {
		return "", err
	}

	now := s.clock()
	parent := model.Preparation{
		Token:            p.Token,
		OpcoOui:          p.OpcoOui,
		FacturationCible: p.FacturationCible,
		JSONRaw:          raw,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	if p.NomOpco != "" {
		parent.NomOpco = &p.NomOpco
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Stagiaires").Create(&parent).Error; err != nil {
			return err
		}
		for _, st := range p.Stagiaires {
			child := model.PreparationStagiaire{
				PreparationID: parent.ID,
				Nom:           st.Nom,
				Prenom:        st.Prenom,
			}
			if err := tx.Create(&child).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "insertion preparation", err)
	}
	return parent.ID, nil
}

// ReponsePayload is one self-assessment answer of an expectations form.
type ReponsePayload struct {
	Question string `json:"question"`
	Niveau   int    `json:"niveau"`
}

// RecueilPayload is the body of POST /recueil_attentes.
type RecueilPayload struct {
	Nom             string           `json:"nom"`
	Prenom          string           `json:"prenom"`
	Attentes        string           `json:"attentes"`
	AutoEvaluations []ReponsePayload `json:"auto_evaluations"`
}

func (p *RecueilPayload) validate() error {
	if strings.TrimSpace(p.Nom) == "" || strings.TrimSpace(p.Prenom) == "" {
		return apperr.New(apperr.BadRequest, "champs nom et prenom requis")
	}
	if len(p.AutoEvaluations) == 0 {
		return apperr.New(apperr.BadRequest, "au moins une auto-évaluation est requise")
	}
	for _, r := range p.AutoEvaluations {
		if strings.TrimSpace(r.Question) == "" {
			return apperr.New(apperr.BadRequest, "champ auto_evaluations: question requise")
		}
	}
	return nil
}

// Recueil inserts an expectations record with its answers and returns the
// new parent identifier.
func (s *Service) Recueil(ctx context.Context, p *RecueilPayload) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	raw, err := canonicalJSON(p)
	if err != nil {
		return "", err
	}

	now := s.clock()
	parent := model.Recueil{
		Nom:        p.Nom,
		Prenom:     p.Prenom,
		Attentes:   p.Attentes,
		JSONRaw:    raw,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Reponses").Create(&parent).Error; err != nil {
			return err
		}
		for _, r := range p.AutoEvaluations {
			child := model.RecueilReponse{
				RecueilID: parent.ID,
				Question:  r.Question,
				Niveau:    r.Niveau,
			}
			if err := tx.Create(&child).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "insertion recueil d'attentes", err)
	}
	return parent.ID, nil
}

// PresencePayload is the body of POST /presence/validate.
type PresencePayload struct {
	IDInscription string `json:"id_inscription"`
	Signature     string `json:"signature"`
}

// ValidatePresence records one half-day attendance. A second submission for
// the same enrollment, calendar date and half-day fails with Duplicate.
func (s *Service) ValidatePresence(ctx context.Context, p *PresencePayload) (string, error) {
	if strings.TrimSpace(p.IDInscription) == "" {
		return "", apperr.New(apperr.BadRequest, "champ id_inscription requis")
	}
	raw, err := canonicalJSON(p)
	if err != nil {
		return "", err
	}

	now := s.clock()
	periode := HalfDay(now)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err = s.db.WithContext(ctx).Model(&model.Presence{}).
		Where("id_inscription = ? AND date_presence = ? AND periode = ? AND NOT archived",
			p.IDInscription, date, periode).
		Count(&count).Error
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "vérification de présence", err)
	}
	if count > 0 {
		return "", apperr.New(apperr.Duplicate, "Présence déjà enregistrée pour cette période.")
	}

	row := model.Presence{
		InscriptionID: p.IDInscription,
		DatePresence:  date,
		Periode:       periode,
		JSONRaw:       raw,
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", apperr.Wrap(apperr.Internal, "insertion présence", err)
	}
	return row.ID, nil
}
