package domain

import "time"

// Role scopes what an account may see and do.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleClub    Role = "CLUB"
	RoleAthlete Role = "ATHLETE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClub || r == RoleAthlete
}

// Account is a portal login. ClubID is set for CLUB accounts and AthleteID
// for ATHLETE accounts.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	ClubID       *string
	AthleteID    *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
