package domain

import "time"

// Inscription records one athlete registered in one convocatoria.
type Inscription struct {
	ID               string
	AthleteID        string
	ConvocatoriaID   string
	EventID          string
	RegisteredAt     time.Time
	RegisteredBy     string
	Validated        bool
	ValidatedAt      *time.Time
	ValidatedBy      *string
	FlaggedForReview bool
	ReviewReason     *EligibilityResult
	ReviewedAt       *time.Time
}

// ReviewFlag is a reconciler decision for one inscription.
type ReviewFlag struct {
	InscriptionID string
	Flagged       bool
	Reason        *EligibilityResult
	At            time.Time
}
