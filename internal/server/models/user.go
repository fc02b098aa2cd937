// Package models defines server-side data models persisted in the database.
package models

// User is an account that can sign in. PasswordDigest is a bcrypt digest and
// never leaves the server.
type User struct {
	ID             string
	UserName       string
	PasswordDigest string
	Roles          []string
	Active         bool
}

// HasRole reports whether u holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
