package auth

import "strings"

// Role is the closed set of marketplace roles. The zero value means the
// session has no role yet.
type Role string

const (
	RoleNone      Role = ""
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	// RoleUnknown covers role strings this client does not know about.
	RoleUnknown Role = "UNKNOWN"
)

// ParseRole maps a server role string onto Role, ignoring case.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER":
		return RoleUser
	case "ADMIN":
		return RoleAdmin
	case "MODERATOR":
		return RoleModerator
	default:
		return RoleUnknown
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
