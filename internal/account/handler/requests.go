package handler

import (
	"strings"

	"govportal/internal/account/service"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

// CreateAccountRequest is the body of POST /users.
type CreateAccountRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Secret     string `json:"password"`
	Role       string `json:"role"`
	SectorID   int64  `json:"sector_id"`
	FunctionID int64  `json:"function_id"`

	role domain.Role
}

func (r *CreateAccountRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" || r.Email == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "name, email and password are required")
	}
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return err
	}
	if r.SectorID < 0 || r.FunctionID < 0 {
		return dErrors.New(dErrors.CodeValidation, "ids must be positive")
	}
	r.role = role
	return nil
}

func (r *CreateAccountRequest) Command() service.CreateAccountCommand {
	return service.CreateAccountCommand{
		Name:       r.Name,
		Email:      r.Email,
		Secret:     r.Secret,
		Role:       r.role,
		SectorID:   domain.SectorID(r.SectorID),
		FunctionID: domain.FunctionID(r.FunctionID),
	}
}

// UpdateAccountRequest is the body of PATCH /users/{id}. Absent fields are unchanged.
type UpdateAccountRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	SectorID   *int64  `json:"sector_id"`
	FunctionID *int64  `json:"function_id"`
	Status     *string `json:"status"`

	cmd service.UpdateAccountCommand
}

func (r *UpdateAccountRequest) Validate() error {
	r.cmd = service.UpdateAccountCommand{Name: r.Name, Email: r.Email}
	if r.Role != nil {
		role, err := domain.ParseRole(*r.Role)
		if err != nil {
			return err
		}
		r.cmd.Role = &role
	}
	if r.SectorID != nil {
		if *r.SectorID <= 0 {
			return dErrors.New(dErrors.CodeValidation, "sector_id must be positive")
		}
		sector := domain.SectorID(*r.SectorID)
		r.cmd.SectorID = &sector
	}
	if r.FunctionID != nil {
		if *r.FunctionID < 0 {
			return dErrors.New(dErrors.CodeValidation, "function_id must not be negative")
		}
		fn := domain.FunctionID(*r.FunctionID)
		r.cmd.FunctionID = &fn
	}
	if r.Status != nil {
		status, err := domain.ParseAccountStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return err
		}
		r.cmd.Status = &status
	}
	return nil
}

func (r *UpdateAccountRequest) Command() service.UpdateAccountCommand {
	return r.cmd
}

// ResetSecretRequest is the body of POST /users/{id}/password. An empty
// password asks the server to generate one.
type ResetSecretRequest struct {
	Secret string `json:"password"`
}

func (r *ResetSecretRequest) Validate() error {
	return nil
}

// SectorRequest is the body of POST /sectors and PUT /sectors/{id}.
type SectorRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (r *SectorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	if r.Name == "" || r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "name and code are required")
	}
	return nil
}

// FunctionRequest is the body of POST /functions.
type FunctionRequest struct {
	Name string `json:"name"`
}

func (r *FunctionRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}
