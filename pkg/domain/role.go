package domain

import (
	"strings"

	dErrors "govportal/pkg/domain-errors"
)

// Role is the closed privilege enumeration. Invariant: only the three values
// below exist; construct via ParseRole at trust boundaries.
type Role string

const (
	RoleMaster      Role = "master"
	RoleCoordinator Role = "coordinator"
	RoleMember      Role = "member"
)

var roleRanks = map[Role]int{
	RoleMember:      1,
	RoleCoordinator: 2,
	RoleMaster:      3,
}

// Legacy labels still sent by older clients of the portal.
var roleAliases = map[string]Role{
	"master":      RoleMaster,
	"coordinator": RoleCoordinator,
	"coordenador": RoleCoordinator,
	"member":      RoleMember,
	"colaborador": RoleMember,
}

// ParseRole constructs a Role from external input, case-insensitively.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r, ok := roleAliases[s]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank orders roles by privilege; unknown roles rank zero.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Outranks reports whether r carries strictly more privilege than other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// RequiresSector reports whether accounts with this role must belong to a sector.
// Master is unscoped, so its sector is informational only.
func (r Role) RequiresSector() bool {
	return r == RoleCoordinator || r == RoleMember
}

func (r Role) String() string {
	return string(r)
}
