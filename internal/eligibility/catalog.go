// Package eligibility holds the category taxonomy and the pure rules that decide
// whether an athlete may enter a convocatoria.
package eligibility

import (
	"strings"

	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// Plausible age bounds for any category or convocatoria.
const (
	MinPlausibleAge = 12
	MaxPlausibleAge = 100
)

var defaultCategories = []domain.Category{
	{Name: "Sub-14", MinAge: 12, MaxAge: 13},
	{Name: "Sub-16", MinAge: 14, MaxAge: 15},
	{Name: "Sub-18", MinAge: 16, MaxAge: 17},
	{Name: "Sub-20", MinAge: 18, MaxAge: 19},
	{Name: "Sub-23", MinAge: 20, MaxAge: 22},
	{Name: "Libre", MinAge: 18, MaxAge: 100},
	{Name: "Master", MinAge: 35, MaxAge: 100},
}

// Catalog is an immutable category table. Safe for concurrent use.
type Catalog struct {
	ordered []domain.Category
	byName  map[string]domain.Category
}

// NewCatalog builds a catalog from categories, rejecting entries that break the bounds invariant.
func NewCatalog(categories []domain.Category) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]domain.Category, 0, len(categories)),
		byName:  make(map[string]domain.Category, len(categories)),
	}
	for _, cat := range categories {
		if err := ValidateBounds(cat.MinAge, cat.MaxAge); err != nil {
			return nil, err
		}
		c.ordered = append(c.ordered, cat)
		c.byName[normalize(cat.Name)] = cat
	}
	return c, nil
}

// DefaultCatalog returns the institute's category table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultCategories)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a category by name, ignoring case and surrounding space.
func (c *Catalog) Lookup(name string) (domain.Category, error) {
	cat, ok := c.byName[normalize(name)]
	if !ok {
		return domain.Category{}, apperrors.NewNotFound("category", map[string]any{"category": name})
	}
	return cat, nil
}

// Categories returns the table in display order.
func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category(nil), c.ordered...)
}

// ValidateBounds enforces minAge <= maxAge with both inside the plausible range.
func (c *Catalog) ValidateBounds(minAge, maxAge int) error {
	return ValidateBounds(minAge, maxAge)
}

// ValidateBounds enforces minAge <= maxAge with both inside the plausible range.
func ValidateBounds(minAge, maxAge int) error {
	if minAge > maxAge ||
		minAge < MinPlausibleAge || minAge > MaxPlausibleAge ||
		maxAge < MinPlausibleAge || maxAge > MaxPlausibleAge {
		return apperrors.NewInvalidCategoryBounds(minAge, maxAge)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
