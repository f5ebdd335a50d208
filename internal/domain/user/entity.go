package user

import "time"

type Role string

const (
	RoleAdmin     Role = "ADMIN"     // Edits users and ledgers, decides leaves
	RoleModerator Role = "MODERATOR" // Decides leaves, reads the stats panel
	RoleUser      Role = "USER"      // Regular employee
)

// AllRoles returns the roles accepted by EditUser.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleModerator, RoleUser}
}

type User struct {
	ID              string
	Name            string
	Email           string
	Image           *string
	Phone           *string
	Department      *string
	Title           *string
	Role            Role
	PasswordHash    *string
	OAuthProvider   *string
	OAuthProviderID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanDecideLeave checks if user can approve or reject leave requests
func (u *User) CanDecideLeave() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// Actor is the authenticated caller, taken from the access token claims
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) CanDecideLeave() bool {
	return a.Role == RoleAdmin || a.Role == RoleModerator
}
