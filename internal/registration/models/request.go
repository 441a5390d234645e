// Package models holds the registration request aggregate.
package models

import (
	"strings"
	"time"

	accountmodels "govportal/internal/account/models"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/email"
)

const (
	maxNameLength   = 128
	maxReasonLength = 500
)

// Request is a nomination for a new account, awaiting approval.
//
// Invariants:
//   - Email is normalized and valid; at most one pending request holds it
//   - Role is coordinator or member and SectorID is set
//   - Once approved or rejected the request never changes again
//   - An approved request links the account it spawned
type Request struct {
	ID          domain.RequestID
	Email       string
	Name        string
	SecretHash  string
	Role        domain.Role
	SectorID    domain.SectorID
	FunctionID  domain.FunctionID
	RequestedBy domain.AccountID
	Status      domain.RequestStatus
	AccountID   domain.AccountID
	ResolvedBy  domain.AccountID
	ResolvedAt  *time.Time
	Reason      string
	CreatedAt   time.Time

	// Read-side joins.
	SectorCode      string
	RequestedByName string
}

type NewRequestParams struct {
	Email       string
	Name        string
	SecretHash  string
	Role        domain.Role
	SectorID    domain.SectorID
	FunctionID  domain.FunctionID
	RequestedBy domain.AccountID
}

// NewRequest validates p and returns an unsaved pending request.
func NewRequest(p NewRequestParams, now time.Time) (*Request, error) {
	addr := email.Normalize(p.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "name must be between 1 and 128 characters")
	}
	if p.Role != domain.RoleCoordinator && p.Role != domain.RoleMember {
		return nil, dErrors.New(dErrors.CodeValidation, "requests can only nominate coordinators or members")
	}
	if p.SectorID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "sector is required")
	}
	if p.SecretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires a secret hash")
	}
	if p.RequestedBy.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires a requesting account")
	}
	return &Request{
		Email:       addr,
		Name:        name,
		SecretHash:  p.SecretHash,
		Role:        p.Role,
		SectorID:    p.SectorID,
		FunctionID:  p.FunctionID,
		RequestedBy: p.RequestedBy,
		Status:      domain.RequestStatusPending,
		CreatedAt:   now,
	}, nil
}

// CanResolve reports already_processed for approved or rejected requests.
func (r *Request) CanResolve() error {
	if r.Status != domain.RequestStatusPending {
		return dErrors.New(dErrors.CodeAlreadyProcessed, "registration request already processed")
	}
	return nil
}

// AccountParams describes the account an approval creates from this request.
func (r *Request) AccountParams(approver domain.AccountID) accountmodels.NewAccountParams {
	return accountmodels.NewAccountParams{
		Email:      r.Email,
		Name:       r.Name,
		SecretHash: r.SecretHash,
		Role:       r.Role,
		SectorID:   r.SectorID,
		FunctionID: r.FunctionID,
		Status:     domain.AccountStatusActivePendingOnboarding,
		CreatedBy:  approver,
	}
}

// ApplyApproval marks the request approved and links the new account.
func (r *Request) ApplyApproval(accountID, by domain.AccountID, now time.Time) error {
	if err := r.CanResolve(); err != nil {
		return err
	}
	if accountID.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "approval requires the created account")
	}
	r.Status = domain.RequestStatusApproved
	r.AccountID = accountID
	r.ResolvedBy = by
	r.ResolvedAt = &now
	return nil
}

// ApplyRejection marks the request rejected with an optional reason.
func (r *Request) ApplyRejection(by domain.AccountID, reason string, now time.Time) error {
	if err := r.CanResolve(); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be 500 characters or less")
	}
	r.Status = domain.RequestStatusRejected
	r.ResolvedBy = by
	r.ResolvedAt = &now
	r.Reason = reason
	return nil
}
