package models

import (
	"strings"
	"time"

	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

// Function is a descriptive job title. It never affects authorization.
type Function struct {
	ID        domain.FunctionID `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewFunction(name string, now time.Time) (*Function, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "function name must be between 1 and 128 characters")
	}
	return &Function{Name: name, CreatedAt: now}, nil
}
