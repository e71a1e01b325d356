package rbac

import "strings"

// Policy maps a role to permission patterns. A pattern is an exact
// permission, "*", or "resource:*" for every action on one resource.
type Policy map[string][]string

// Allows reports whether role holds at least one of perms.
func (p Policy) Allows(role string, perms ...string) bool {
	for _, pattern := range p[role] {
		for _, perm := range perms {
			if grants(pattern, perm) {
				return true
			}
		}
	}
	return false
}

func grants(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	resource, action, ok := strings.Cut(pattern, ":")
	return ok && action == "*" && strings.HasPrefix(perm, resource+":")
}
