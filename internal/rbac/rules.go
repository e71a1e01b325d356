package rbac

import "strings"

// Roles as reported by the platform API.
const (
	RoleUser    = "USER"
	RoleTeacher = "TEACHER"
	RoleAdmin   = "ADMIN"
)

// DefaultPolicy is the permission set for platform roles.
var DefaultPolicy = Policy{
	RoleUser: {
		"lesson:extract",
		"questions:generate",
		"quiz:generate",
		"quiz:take",
		"quiz:export",
	},
	RoleTeacher: {
		"lesson:extract",
		"questions:generate",
		"quiz:*",
		"users:list",
	},
	RoleAdmin: {
		"*", // everything
	},
}

// NormalizeRole upper-cases role and maps anything unknown to RoleUser.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if _, ok := DefaultPolicy[r]; ok {
		return r
	}
	return RoleUser
}
