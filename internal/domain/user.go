package domain

import "time"

// UserType distinguishes passengers from drivers.
type UserType string

const (
	UserTypePassenger UserType = "passenger"
	UserTypeDriver    UserType = "driver"
)

// IsValid reports whether t is a known user type.
func (t UserType) IsValid() bool {
	return t == UserTypePassenger || t == UserTypeDriver
}

// User represents a verified passenger or driver account.
type User struct {
	ID         string
	Phone      string
	FirstName  string
	LastName   string
	Email      string
	UserType   UserType
	IsVerified bool
	CreatedAt  time.Time
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
