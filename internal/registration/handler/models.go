package handler

import (
	"strings"
	"time"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/registration/models"
	"govportal/internal/registration/service"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

// SubmitRequest is the body of POST /registrations.
type SubmitRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Secret     string `json:"password"`
	Role       string `json:"role"`
	SectorCode string `json:"sector_code"`
	FunctionID int64  `json:"function_id"`

	role domain.Role
}

func (r *SubmitRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.SectorCode = strings.TrimSpace(r.SectorCode)
	if r.Name == "" || r.Email == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "name, email and password are required")
	}
	if r.SectorCode == "" {
		return dErrors.New(dErrors.CodeValidation, "sector_code is required")
	}
	if r.FunctionID < 0 {
		return dErrors.New(dErrors.CodeValidation, "function_id must be positive")
	}
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.role = role
	return nil
}

func (r *SubmitRequest) Command() service.SubmitCommand {
	return service.SubmitCommand{
		Name:       r.Name,
		Email:      r.Email,
		Secret:     r.Secret,
		Role:       r.role,
		SectorCode: r.SectorCode,
		FunctionID: domain.FunctionID(r.FunctionID),
	}
}

// RejectRequest is the optional body of PATCH /registrations/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

// AccessRequest is the body of the public POST /auth/request-access.
type AccessRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Secret     string `json:"password"`
	SectorCode string `json:"sector_code"`
	FunctionID int64  `json:"function_id"`
}

func (r *AccessRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.SectorCode = strings.TrimSpace(r.SectorCode)
	if r.Name == "" || r.Email == "" || r.Secret == "" || r.SectorCode == "" {
		return dErrors.New(dErrors.CodeValidation, "name, email, password and sector_code are required")
	}
	if r.FunctionID < 0 {
		return dErrors.New(dErrors.CodeValidation, "function_id must be positive")
	}
	return nil
}

func (r *AccessRequest) Registration() service.SelfRegistration {
	return service.SelfRegistration{
		Name:       r.Name,
		Email:      r.Email,
		Secret:     r.Secret,
		SectorCode: r.SectorCode,
		FunctionID: domain.FunctionID(r.FunctionID),
	}
}

// SubmitResponse carries request_id for nominations and account_id for direct creations.
type SubmitResponse struct {
	RequestID int64  `json:"request_id,omitempty"`
	AccountID int64  `json:"account_id,omitempty"`
	Status    string `json:"status"`
}

func fromSubmit(res *service.SubmitResult) SubmitResponse {
	if !res.RequestID.IsZero() {
		return SubmitResponse{RequestID: int64(res.RequestID), Status: string(domain.RequestStatusPending)}
	}
	return SubmitResponse{AccountID: int64(res.AccountID), Status: string(domain.AccountStatusActive)}
}

type RequestResponse struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	SectorID        int64      `json:"sector_id"`
	SectorCode      string     `json:"sector_code,omitempty"`
	FunctionID      int64      `json:"function_id,omitempty"`
	RequestedBy     int64      `json:"requested_by"`
	RequestedByName string     `json:"requested_by_name,omitempty"`
	Status          string     `json:"status"`
	AccountID       int64      `json:"account_id,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func fromRequest(r *models.Request) RequestResponse {
	return RequestResponse{
		ID:              int64(r.ID),
		Email:           r.Email,
		Name:            r.Name,
		Role:            string(r.Role),
		SectorID:        int64(r.SectorID),
		SectorCode:      r.SectorCode,
		FunctionID:      int64(r.FunctionID),
		RequestedBy:     int64(r.RequestedBy),
		RequestedByName: r.RequestedByName,
		Status:          string(r.Status),
		AccountID:       int64(r.AccountID),
		ResolvedAt:      r.ResolvedAt,
		CreatedAt:       r.CreatedAt,
	}
}

type PendingListResponse struct {
	Requests []RequestResponse `json:"requests"`
	Count    int               `json:"count"`
}

// AccountResponse describes an account produced by the workflow.
type AccountResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	SectorID int64  `json:"sector_id,omitempty"`
}

func fromAccount(a *accountmodels.Account) AccountResponse {
	return AccountResponse{
		ID:       int64(a.ID),
		Email:    a.Email,
		Name:     a.Name,
		Role:     string(a.Role),
		Status:   string(a.Status),
		SectorID: int64(a.SectorID),
	}
}

// ResolutionResponse acknowledges a reject or an account decision.
type ResolutionResponse struct {
	ID       int64  `json:"id"`
	Decision string `json:"decision"`
}
