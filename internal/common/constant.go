package common

// RefreshCookieName is the name of the cookie that carries the refresh token.
const RefreshCookieName = "jwt"

// AuthorizationHeaderName carries the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// Roles known to the application. Roles are opaque labels inside tokens;
// only the transport role gate compares them.
const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleAdmin    = "Admin"
)

// IsKnownRole reports whether role is one of the roles above.
func IsKnownRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}
