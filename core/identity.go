package core

// Role is the caller's role as reported by the identity authority.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the roles this layer understands.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Identity is the trusted user record for the duration of one request.
// It is created once by Core.Resolve and never mutated afterwards.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Token  string `json:"-"`
}
