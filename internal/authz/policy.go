// Package authz decides whether a caller may act on a resource.
//
// Authorize is pure: role gate first, then sector gate. Reporting denials to
// the audit ledger is the Enforcer's job, so the decision itself stays free
// of I/O and cheap enough to run on every protected request.
package authz

import (
	"slices"

	"govportal/pkg/domain"
)

// Reason is the machine-readable cause of a denial.
type Reason string

const (
	ReasonRoleNotPermitted Reason = "role_not_permitted"
	ReasonCrossSector      Reason = "cross_sector_denied"
)

// Caller is the subset of a session the policy evaluates.
type Caller struct {
	Role     domain.Role
	SectorID domain.SectorID
}

// Decision is the policy outcome. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

// Staff is the role set allowed to administer accounts and read the ledger.
var Staff = []domain.Role{domain.RoleMaster, domain.RoleCoordinator}

// Authorize applies the role gate, then the sector gate. A zero
// resourceSector means the resource has no sector and only the role gate
// applies. Master is exempt from the sector gate. An empty required set
// denies everyone.
func Authorize(caller Caller, resourceSector domain.SectorID, required ...domain.Role) Decision {
	if !caller.Role.IsValid() || !slices.Contains(required, caller.Role) {
		return Decision{Reason: ReasonRoleNotPermitted}
	}
	if caller.Role == domain.RoleMaster || resourceSector.IsZero() {
		return allow
	}
	if resourceSector != caller.SectorID {
		return Decision{Reason: ReasonCrossSector}
	}
	return allow
}

// CanAssignRole reports whether caller may give an account the target role.
// Nobody grants a role above their own.
func CanAssignRole(caller Caller, target domain.Role) bool {
	return target.IsValid() && !target.Outranks(caller.Role)
}

// Assigners returns the staff roles allowed to grant target. Passing the
// result to Authorize turns "no role above your own" into an ordinary role gate.
func Assigners(target domain.Role) []domain.Role {
	var out []domain.Role
	for _, r := range Staff {
		if !target.Outranks(r) {
			out = append(out, r)
		}
	}
	return out
}

// TargetGate returns the roles allowed to act on an existing account holding
// role. Only a Master may act on a Master.
func TargetGate(role domain.Role) []domain.Role {
	if role == domain.RoleMaster {
		return []domain.Role{domain.RoleMaster}
	}
	return Staff
}
