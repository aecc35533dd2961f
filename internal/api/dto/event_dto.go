package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// ConvocatoriaRequest defines one convocatoria inside CreateEventRequest.
type ConvocatoriaRequest struct {
	Discipline   string `json:"discipline"`
	Category     string `json:"category"`
	AgeMin       *int   `json:"age_min"`
	AgeMax       *int   `json:"age_max"`
	GenderFilter string `json:"gender_filter"`
}

// Validate implements validation.Validatable.
func (r ConvocatoriaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Discipline, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.GenderFilter, validation.In(validGenderFilters...)),
	)
}

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title         string                `json:"title"`
	Location      string                `json:"location"`
	Date          string                `json:"date"`
	ClosingDate   string                `json:"closing_date"`
	Status        string                `json:"status"`
	Convocatorias []ConvocatoriaRequest `json:"convocatorias"`
}

// Validate implements validation.Validatable.
func (r CreateEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Date, validation.Required, dateRule),
		validation.Field(&r.ClosingDate, validation.Required, dateRule),
		validation.Field(&r.Status, validation.In(validStatuses...)),
		validation.Field(&r.Convocatorias, validation.Required),
	)
}

// ToInput converts a validated request into service input.
func (r CreateEventRequest) ToInput() service.EventInput {
	input := service.EventInput{
		Title:       r.Title,
		Location:    r.Location,
		Date:        mustParseDate(r.Date),
		ClosingDate: mustParseDate(r.ClosingDate),
		Status:      domain.EventStatus(r.Status),
	}
	for _, c := range r.Convocatorias {
		input.Convocatorias = append(input.Convocatorias, service.ConvocatoriaInput{
			Discipline:   c.Discipline,
			Category:     c.Category,
			AgeMin:       c.AgeMin,
			AgeMax:       c.AgeMax,
			GenderFilter: domain.GenderFilter(c.GenderFilter),
		})
	}
	return input
}

// UpdateEventRequest payload; omitted fields stay unchanged.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Location    *string `json:"location"`
	Date        *string `json:"date"`
	ClosingDate *string `json:"closing_date"`
	Status      *string `json:"status"`
}

// Validate implements validation.Validatable.
func (r UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Date, validation.NilOrNotEmpty, dateRule),
		validation.Field(&r.ClosingDate, validation.NilOrNotEmpty, dateRule),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(validStatuses...)),
	)
}

// ToPatch converts a validated request into a service patch.
func (r UpdateEventRequest) ToPatch() service.EventPatch {
	patch := service.EventPatch{Title: r.Title, Location: r.Location}
	if r.Date != nil {
		d := mustParseDate(*r.Date)
		patch.Date = &d
	}
	if r.ClosingDate != nil {
		d := mustParseDate(*r.ClosingDate)
		patch.ClosingDate = &d
	}
	if r.Status != nil {
		s := domain.EventStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

// UpdateConvocatoriaRequest payload; omitted fields stay unchanged.
type UpdateConvocatoriaRequest struct {
	Discipline   *string `json:"discipline"`
	AgeMin       *int    `json:"age_min"`
	AgeMax       *int    `json:"age_max"`
	GenderFilter *string `json:"gender_filter"`
}

// Validate implements validation.Validatable. Age bounds are checked by the
// catalog so that they surface as INVALID_CATEGORY_BOUNDS.
func (r UpdateConvocatoriaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Discipline, validation.NilOrNotEmpty, validation.Length(1, 120)),
		validation.Field(&r.GenderFilter, validation.NilOrNotEmpty, validation.In(validGenderFilters...)),
	)
}

// ToPatch converts a validated request into a service patch.
func (r UpdateConvocatoriaRequest) ToPatch() service.ConvocatoriaPatch {
	patch := service.ConvocatoriaPatch{Discipline: r.Discipline, AgeMin: r.AgeMin, AgeMax: r.AgeMax}
	if r.GenderFilter != nil {
		g := domain.GenderFilter(*r.GenderFilter)
		patch.GenderFilter = &g
	}
	return patch
}

// ConvocatoriaResponse represents a convocatoria with its event's rules.
type ConvocatoriaResponse struct {
	ID           string              `json:"id"`
	EventID      string              `json:"event_id"`
	Position     int                 `json:"position"`
	Discipline   string              `json:"discipline"`
	Category     string              `json:"category"`
	AgeMin       int                 `json:"age_min"`
	AgeMax       int                 `json:"age_max"`
	GenderFilter domain.GenderFilter `json:"gender_filter"`
	EventStatus  domain.EventStatus  `json:"event_status"`
	ClosingDate  string              `json:"closing_date"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// EventResponse represents an event and its convocatorias in display order.
type EventResponse struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Location      string                 `json:"location"`
	Date          string                 `json:"date"`
	ClosingDate   string                 `json:"closing_date"`
	Status        domain.EventStatus     `json:"status"`
	Convocatorias []ConvocatoriaResponse `json:"convocatorias"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CategoryResponse represents a catalog entry.
type CategoryResponse struct {
	Name   string `json:"name"`
	MinAge int    `json:"min_age"`
	MaxAge int    `json:"max_age"`
}

// NewConvocatoriaResponse maps a convocatoria.
func NewConvocatoriaResponse(c *domain.Convocatoria) ConvocatoriaResponse {
	return ConvocatoriaResponse{
		ID:           c.ID,
		EventID:      c.EventID,
		Position:     c.Position,
		Discipline:   c.Discipline,
		Category:     c.Category,
		AgeMin:       c.AgeMin,
		AgeMax:       c.AgeMax,
		GenderFilter: c.GenderFilter,
		EventStatus:  c.EventStatus,
		ClosingDate:  formatDate(c.ClosingDate),
		UpdatedAt:    c.UpdatedAt,
	}
}

// NewEventResponse maps an event.
func NewEventResponse(e *domain.Event) EventResponse {
	convs := make([]ConvocatoriaResponse, 0, len(e.Convocatorias))
	for i := range e.Convocatorias {
		convs = append(convs, NewConvocatoriaResponse(&e.Convocatorias[i]))
	}
	return EventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Location:      e.Location,
		Date:          formatDate(e.Date),
		ClosingDate:   formatDate(e.ClosingDate),
		Status:        e.Status,
		Convocatorias: convs,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// NewCategoryResponses maps the catalog.
func NewCategoryResponses(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{Name: c.Name, MinAge: c.MinAge, MaxAge: c.MaxAge})
	}
	return out
}
