package domain

// Category is a named age band from the institute's taxonomy.
type Category struct {
	Name   string
	MinAge int
	MaxAge int
}

// Contains reports whether age falls inside the band.
func (c Category) Contains(age int) bool {
	return age >= c.MinAge && age <= c.MaxAge
}
