package domain

import dErrors "govportal/pkg/domain-errors"

// AccountStatus is the account lifecycle.
//
//	pending -> active_pending_onboarding -> active
//	pending -> rejected
//	active | active_pending_onboarding <-> inactive (administrative)
type AccountStatus string

const (
	AccountStatusPending                 AccountStatus = "pending"
	AccountStatusActive                  AccountStatus = "active"
	AccountStatusActivePendingOnboarding AccountStatus = "active_pending_onboarding"
	AccountStatusRejected                AccountStatus = "rejected"
	AccountStatusInactive                AccountStatus = "inactive"
)

var validAccountStatuses = map[AccountStatus]bool{
	AccountStatusPending:                 true,
	AccountStatusActive:                  true,
	AccountStatusActivePendingOnboarding: true,
	AccountStatusRejected:                true,
	AccountStatusInactive:                true,
}

// ParseAccountStatus constructs an AccountStatus from external input.
func ParseAccountStatus(s string) (AccountStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := AccountStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

func (s AccountStatus) IsValid() bool {
	return validAccountStatuses[s]
}

// CanAuthenticate reports whether an account in this status may open a session.
func (s AccountStatus) CanAuthenticate() bool {
	return s == AccountStatusActive || s == AccountStatusActivePendingOnboarding
}

func (s AccountStatus) String() string {
	return string(s)
}

// RequestStatus is the registration request lifecycle. Resolved requests are immutable.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsValid() bool {
	return s == RequestStatusPending || s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) IsResolved() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) String() string {
	return string(s)
}
