package audit

import (
	"context"
	"time"

	"govportal/pkg/domain"
)

// Action is the audit action code. Codes are stable strings; new codes may be
// added but existing ones are never renamed because stored rows reference them.
type Action string

const (
	// Session
	ActionLoginSuccess            Action = "login_success"
	ActionLoginUnknownEmail       Action = "login_failed_unknown_email"
	ActionLoginAccountNotActive   Action = "login_failed_account_not_active"
	ActionLoginBadSecret          Action = "login_failed_bad_secret"
	ActionRefreshAccountNotActive Action = "refresh_failed_account_not_active"
	ActionLogout                  Action = "logout"

	// Authorization
	ActionAccessDenied Action = "access_denied"

	// Registration workflow
	ActionRegistrationSubmitted Action = "registration_submitted"
	ActionCoordinatorCreated    Action = "coordinator_created_direct"
	ActionRegistrationApproved  Action = "registration_approved"
	ActionApprovalFailed        Action = "approval_failed"
	ActionRegistrationRejected  Action = "registration_rejected"
	ActionAccessRequested       Action = "access_requested"
	ActionAccountApproved       Action = "account_approved"
	ActionAccountRejected       Action = "account_rejected"
	ActionOnboardingCompleted   Action = "onboarding_completed"

	// Account administration
	ActionAccountCreated     Action = "account_created_direct"
	ActionAccountUpdated     Action = "account_updated"
	ActionAccountDeactivated Action = "account_deactivated"
	ActionAccountDeleted     Action = "account_deleted"
	ActionSecretReset        Action = "secret_reset"

	// Reference data
	ActionSectorCreated   Action = "sector_created"
	ActionSectorUpdated   Action = "sector_updated"
	ActionSectorDeleted   Action = "sector_deleted"
	ActionFunctionCreated Action = "function_created"
	ActionFunctionDeleted Action = "function_deleted"

	// Ledger
	ActionAuditExported Action = "audit_exported"
)

// Record is one immutable ledger row. ActorID is nil for pre-authentication
// and system events; SectorID is the actor's sector at the time of the action.
type Record struct {
	ID        domain.RecordID   `json:"id"`
	ActorID   *domain.AccountID `json:"actor_id"`
	Action    Action            `json:"action"`
	SectorID  *domain.SectorID  `json:"sector_id"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]any    `json:"detail"`

	// Read-side joins, filled by Query only.
	ActorName  string `json:"actor_name,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
	SectorCode string `json:"sector_code,omitempty"`
}

// Entry is what callers hand the ledger. Zero ids mean "none".
type Entry struct {
	ActorID  domain.AccountID
	SectorID domain.SectorID
	Action   Action
	Detail   map[string]any
}

// Filter narrows a query. Zero values are unset. SectorID is the caller scope
// and is set by the ledger, never taken from request input.
type Filter struct {
	SectorID   domain.SectorID
	ActorID    domain.AccountID
	ActionLike string
	From       time.Time
	// Until is exclusive.
	Until  time.Time
	Limit  int
	Offset int
}

// Appender writes one record and assigns its ID. Postgres appenders join the
// transaction carried by ctx.
type Appender interface {
	Append(ctx context.Context, rec *Record) error
}

// Store is the ledger's system of record.
type Store interface {
	Appender
	// Query returns records matching f, newest first.
	Query(ctx context.Context, f Filter) ([]Record, error)
	// CountByActor counts records attributed to an account.
	CountByActor(ctx context.Context, actorID domain.AccountID) (int, error)
}

// Forwarder streams stored records to an external sink. It must not block.
type Forwarder interface {
	Forward(ctx context.Context, rec Record)
}
