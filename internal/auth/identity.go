package auth

// Identity is the verified caller: immutable per request, never persisted
// by the relay.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Platform roles relevant to recipient scoping. Any other role string is a
// plain authenticated member.
const (
	RoleSuperadmin     = "superadmin"
	RoleAdmin          = "admin"
	RoleCompanyAdmin   = "company_admin"
	RoleProjectManager = "project_manager"
)

// Elevated roles may publish to every known user.
func (i Identity) Elevated() bool {
	return i.Role == RoleSuperadmin || i.Role == RoleAdmin
}

// CompanyScoped roles may publish to a company audience.
func (i Identity) CompanyScoped() bool {
	return i.Elevated() || i.Role == RoleCompanyAdmin
}
