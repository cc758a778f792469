package models

// Role is the privilege level of a user account.
type Role string

const (
	// RoleNormal users manage only their own account and plays.
	RoleNormal Role = "normal"
	// RolePower users can create games and modify or delete any user.
	RolePower Role = "power"
)

func (r Role) Valid() bool {
	return r == RoleNormal || r == RolePower
}
