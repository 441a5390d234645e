package models

import (
	"strings"
	"time"

	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/email"
)

const maxNameLength = 128

// Account is a portal identity.
//
// Invariants:
//   - Email is normalized (trimmed, lower-cased), valid and unique
//   - Role is one of master, coordinator, member
//   - Non-master accounts belong to a sector; a master's sector is informational
//   - SecretHash is a one-way hash and never leaves the process
//
// Lifecycle:
//
//	pending -> active_pending_onboarding -> active   (self-registration, approval, onboarding)
//	pending -> rejected
//	active | active_pending_onboarding -> inactive   (administrative)
//	inactive -> active                               (administrative)
type Account struct {
	ID         domain.AccountID
	Email      string
	Name       string
	SecretHash string
	Role       domain.Role
	SectorID   domain.SectorID
	FunctionID domain.FunctionID
	Status     domain.AccountStatus
	CreatedBy  domain.AccountID
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Read-side joins.
	SectorCode string
	SectorName string
}

// NewAccountParams carries the fields needed to construct an Account.
type NewAccountParams struct {
	Email      string
	Name       string
	SecretHash string
	Role       domain.Role
	SectorID   domain.SectorID
	FunctionID domain.FunctionID
	Status     domain.AccountStatus
	CreatedBy  domain.AccountID
}

// NewAccount validates p and returns an unsaved Account.
func NewAccount(p NewAccountParams, now time.Time) (*Account, error) {
	addr := email.Normalize(p.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	if p.SecretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account requires a secret hash")
	}
	if err := validateRoleSector(p.Role, p.SectorID); err != nil {
		return nil, err
	}
	if !p.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid account status")
	}
	return &Account{
		Email:      addr,
		Name:       name,
		SecretHash: p.SecretHash,
		Role:       p.Role,
		SectorID:   p.SectorID,
		FunctionID: p.FunctionID,
		Status:     p.Status,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validateRoleSector(role domain.Role, sector domain.SectorID) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if role.RequiresSector() && sector.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "sector is required for this role")
	}
	return nil
}

// Rename validates and applies a new display name.
func (a *Account) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be between 1 and 128 characters")
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}

// ChangeEmail validates and applies a new address. Uniqueness is the store's job.
func (a *Account) ChangeEmail(address string, now time.Time) error {
	addr := email.Normalize(address)
	if !email.IsValid(addr) {
		return dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	a.Email = addr
	a.UpdatedAt = now
	return nil
}

// Reassign changes role and sector together so the pairing invariant holds.
func (a *Account) Reassign(role domain.Role, sector domain.SectorID, now time.Time) error {
	if err := validateRoleSector(role, sector); err != nil {
		return err
	}
	a.Role = role
	a.SectorID = sector
	a.UpdatedAt = now
	return nil
}

// CanSetAdministrativeStatus checks an administrative status edit. Only
// activation and deactivation are administrative; the other statuses belong
// to the registration and onboarding flows.
func (a *Account) CanSetAdministrativeStatus(to domain.AccountStatus) error {
	switch to {
	case domain.AccountStatusInactive:
		if !a.Status.CanAuthenticate() {
			return dErrors.New(dErrors.CodeInvariantViolation, "only active accounts can be deactivated")
		}
	case domain.AccountStatusActive:
		if a.Status != domain.AccountStatusInactive {
			return dErrors.New(dErrors.CodeInvariantViolation, "only inactive accounts can be reactivated")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "status can only be set to active or inactive")
	}
	return nil
}

// ApplyStatus sets the status. Call the matching Can* check first.
func (a *Account) ApplyStatus(to domain.AccountStatus, now time.Time) {
	a.Status = to
	a.UpdatedAt = now
}

// CanResolveRegistration checks that a self-registered account still awaits a decision.
func (a *Account) CanResolveRegistration() error {
	if a.Status != domain.AccountStatusPending {
		return dErrors.New(dErrors.CodeAlreadyProcessed, "account registration already processed")
	}
	return nil
}
