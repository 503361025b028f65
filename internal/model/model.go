// Package model contains GORM model definitions for form submissions.
// All models are driver-agnostic: production runs on PostgreSQL, tests on
// SQLite.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Preparation is the parent row of a training-preparation submission.
type Preparation struct {
	ID               string    `gorm:"column:id_preparation_formation;type:text;primaryKey"`
	Token            string    `gorm:"type:text;not null"`
	OpcoOui          bool      `gorm:"column:opco_oui;not null"`
	NomOpco          *string   `gorm:"column:nom_opco;type:text"`
	FacturationCible string    `gorm:"column:facturation_cible;type:text;not null"`
	JSONRaw          string    `gorm:"column:json_raw;type:text;not null"`
	CreatedAt        time.Time `gorm:"not null"`
	ModifiedAt       time.Time `gorm:"not null"`

	Stagiaires []PreparationStagiaire `gorm:"foreignKey:PreparationID;references:ID"`
}

// TableName fixes the legacy table name.
func (Preparation) TableName() string { return "preparation_formation" }

// BeforeCreate generates a UUID primary key if not set.
func (p *Preparation) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PreparationStagiaire is one trainee attached to a preparation record.
type PreparationStagiaire struct {
	ID            string `gorm:"column:id_stagiaire;type:text;primaryKey"`
	PreparationID string `gorm:"column:id_preparation_formation;type:text;not null;index"`
	Nom           string `gorm:"type:text;not null"`
	Prenom        string `gorm:"type:text;not null"`
}

// TableName fixes the legacy table name.
func (PreparationStagiaire) TableName() string { return "preparation_stagiaires" }

// BeforeCreate generates a UUID primary key if not set.
func (s *PreparationStagiaire) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Recueil is the parent row of an expectations (recueil d'attentes) form.
type Recueil struct {
	ID         string    `gorm:"column:id_recueil;type:text;primaryKey"`
	Nom        string    `gorm:"type:text;not null"`
	Prenom     string    `gorm:"type:text;not null"`
	Attentes   string    `gorm:"type:text"`
	JSONRaw    string    `gorm:"column:json_raw;type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	ModifiedAt time.Time `gorm:"not null"`

	Reponses []RecueilReponse `gorm:"foreignKey:RecueilID;references:ID"`
}

// TableName fixes the legacy table name.
func (Recueil) TableName() string { return "recueil_attentes" }

// BeforeCreate generates a UUID primary key if not set.
func (r *Recueil) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// RecueilReponse is one self-assessment answer of an expectations form.
type RecueilReponse struct {
	ID        string `gorm:"column:id_reponse;type:text;primaryKey"`
	RecueilID string `gorm:"column:id_recueil;type:text;not null;index"`
	Question  string `gorm:"type:text;not null"`
	Niveau    int    `gorm:"not null"`
}

// TableName fixes the legacy table name.
func (RecueilReponse) TableName() string { return "recueil_attentes_reponses" }

// BeforeCreate generates a UUID primary key if not set.
func (r *RecueilReponse) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Presence records one half-day attendance for an enrollment.
type Presence struct {
	ID            string    `gorm:"column:id_presence;type:text;primaryKey"`
	InscriptionID string    `gorm:"column:id_inscription;type:text;not null;index"`
	DatePresence  time.Time `gorm:"column:date_presence;type:date;not null"`
	Periode       string    `gorm:"type:text;not null"`
	JSONRaw       string    `gorm:"column:json_raw;type:text;not null"`
	Archived      bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	ModifiedAt    time.Time `gorm:"not null"`
}

// TableName fixes the legacy table name.
func (Presence) TableName() string { return "presences" }

// BeforeCreate generates a UUID primary key if not set.
func (p *Presence) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
