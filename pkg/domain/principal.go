package domain

// Role is the immutable account role assigned at registration.
type Role string

const (
	RoleCitizen     Role = "citizen"
	RoleInstitution Role = "institution"
)

func (r Role) IsValid() bool {
	return r == RoleCitizen || r == RoleInstitution
}

func (r Role) String() string { return string(r) }

// Principal is the caller identity derived from a verified bearer token.
// It lives only for the duration of one request.
type Principal struct {
	AccountID AccountID
	Role      Role
	Name      string
}

func (p Principal) IsCitizen() bool     { return p.Role == RoleCitizen }
func (p Principal) IsInstitution() bool { return p.Role == RoleInstitution }
