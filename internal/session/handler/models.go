package handler

import (
	"strings"

	"govportal/internal/session/token"
	dErrors "govportal/pkg/domain-errors"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// RefreshRequest carries a refresh token. Older clients send it as "token".
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	Token        string `json:"token"`
}

func (r *RefreshRequest) Validate() error {
	if r.RefreshToken == "" {
		r.RefreshToken = r.Token
	}
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	if r.RefreshToken == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "refresh token is required")
	}
	return nil
}

type UserResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	SectorID   int64  `json:"sector_id,omitempty"`
	SectorName string `json:"sector_name,omitempty"`
	SectorCode string `json:"sector_code,omitempty"`
}

type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

func userFromClaims(c *token.Claims) UserResponse {
	return UserResponse{
		ID:         int64(c.AccountID),
		Name:       c.Name,
		Role:       string(c.Role),
		SectorID:   int64(c.SectorID),
		SectorName: c.SectorName,
		SectorCode: c.SectorCode,
	}
}
