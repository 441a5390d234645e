package handler

import (
	"time"

	"govportal/internal/account/models"
)

// AccountResponse never carries the secret hash.
type AccountResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	SectorID   int64     `json:"sector_id,omitempty"`
	SectorCode string    `json:"sector_code,omitempty"`
	SectorName string    `json:"sector_name,omitempty"`
	FunctionID int64     `json:"function_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func FromAccount(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:         int64(a.ID),
		Email:      a.Email,
		Name:       a.Name,
		Role:       string(a.Role),
		Status:     string(a.Status),
		SectorID:   int64(a.SectorID),
		SectorCode: a.SectorCode,
		SectorName: a.SectorName,
		FunctionID: int64(a.FunctionID),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Count    int               `json:"count"`
}

type ResetSecretResponse struct {
	GeneratedPassword string `json:"generated_password,omitempty"`
}

type SectorListResponse struct {
	Sectors []*models.Sector `json:"sectors"`
}

type FunctionListResponse struct {
	Functions []*models.Function `json:"functions"`
}
