// internal/model/identity.go
package model

// Role values as the backend reports them.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Identity is the signed-in user as returned by POST /auth/login. The token
// is opaque to the client except for a best-effort local peek at its expiry
// claim (see internal/session).
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
