package domain

import "time"

// EventStatus enumerates event lifecycle states. Convocatorias inherit it.
type EventStatus string

const (
	EventStatusActive    EventStatus = "activo"
	EventStatusCancelled EventStatus = "cancelado"
	EventStatusFinished  EventStatus = "finalizado"
	EventStatusPending   EventStatus = "pendiente"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusFinished, EventStatusPending:
		return true
	}
	return false
}

// Closed reports whether the status stops inscriptions regardless of dates.
func (s EventStatus) Closed() bool {
	return s == EventStatusCancelled || s == EventStatusFinished
}

// GenderFilter restricts a convocatoria to a gender, or none for mixto.
type GenderFilter string

const (
	GenderFilterMale   GenderFilter = "masculino"
	GenderFilterFemale GenderFilter = "femenino"
	GenderFilterMixed  GenderFilter = "mixto"
)

// Valid reports whether f is a known filter.
func (f GenderFilter) Valid() bool {
	return f == GenderFilterMale || f == GenderFilterFemale || f == GenderFilterMixed
}

// Admits reports whether an athlete of gender g passes the filter.
func (f GenderFilter) Admits(g Gender) bool {
	return f == GenderFilterMixed || string(f) == string(g)
}

// Event groups convocatorias under a single date and closing date.
type Event struct {
	ID            string
	Title         string
	Location      string
	Date          time.Time
	ClosingDate   time.Time
	Status        EventStatus
	Convocatorias []Convocatoria
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Convocatoria is one open call within an event. EventStatus and ClosingDate
// are copied from the owning event in the same read, so a Convocatoria value
// is always a complete rule set.
type Convocatoria struct {
	ID           string
	EventID      string
	Position     int
	Discipline   string
	Category     string
	AgeMin       int
	AgeMax       int
	GenderFilter GenderFilter
	EventStatus  EventStatus
	ClosingDate  time.Time
	UpdatedAt    time.Time
}

// RulesDiffer reports whether any field used for eligibility changed.
func (c Convocatoria) RulesDiffer(other Convocatoria) bool {
	return c.AgeMin != other.AgeMin ||
		c.AgeMax != other.AgeMax ||
		c.GenderFilter != other.GenderFilter ||
		c.EventStatus != other.EventStatus ||
		!c.ClosingDate.Equal(other.ClosingDate)
}
