package domain

import "time"

// Gender of an athlete.
type Gender string

const (
	GenderMale   Gender = "masculino"
	GenderFemale Gender = "femenino"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Affiliation is either a club membership or independent status.
// The zero value is Independent.
type Affiliation struct {
	clubID string
}

// ClubAffiliation returns an affiliation to the given club.
func ClubAffiliation(clubID string) Affiliation {
	return Affiliation{clubID: clubID}
}

// Independent returns an affiliation with no club.
func Independent() Affiliation {
	return Affiliation{}
}

// ClubID returns the club and true when the athlete belongs to one.
func (a Affiliation) ClubID() (string, bool) {
	return a.clubID, a.clubID != ""
}

// IsIndependent reports whether the athlete competes without a club.
func (a Affiliation) IsIndependent() bool {
	return a.clubID == ""
}

// BelongsTo reports whether the affiliation is the given club.
func (a Affiliation) BelongsTo(clubID string) bool {
	return clubID != "" && a.clubID == clubID
}

// Athlete is read from the athlete directory; the inscription core never mutates it.
type Athlete struct {
	ID          string
	FirstName   string
	LastName    string
	BirthDate   time.Time
	Gender      Gender
	Affiliation Affiliation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins first and last name.
func (a *Athlete) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
