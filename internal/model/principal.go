package model

// Role names carried in the access token "role" claim.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
)

// Principal is the authenticated caller.  It is built once by the JWT
// middleware and passed explicitly to the services that need to decide
// which data the caller may see.
type Principal struct {
	UserID ID     `json:"user_id"`
	Role   string `json:"role"`
	// Token is the raw bearer token, forwarded to remote collaborators.
	Token string `json:"-"`
}

// IsAdmin reports whether the caller sees every venue.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
