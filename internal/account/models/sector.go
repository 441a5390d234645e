package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

const maxSectorCodeLength = 16

// Sector is an organizational unit and the scoping boundary for coordinators.
//
// Invariants:
//   - Code is trimmed, upper-cased, 1..16 characters and unique
//   - Name is non-empty
type Sector struct {
	ID        domain.SectorID `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	CreatedAt time.Time       `json:"created_at"`
}

// NormalizeSectorCode returns the canonical form used for storage and lookup.
func NormalizeSectorCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewSector(name, code string, now time.Time) (*Sector, error) {
	s := &Sector{CreatedAt: now}
	if err := s.Apply(name, code); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply validates and sets name and code.
func (s *Sector) Apply(name, code string) error {
	name = strings.TrimSpace(name)
	code = NormalizeSectorCode(code)
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "sector name is required")
	}
	if code == "" || utf8.RuneCountInString(code) > maxSectorCodeLength {
		return dErrors.New(dErrors.CodeValidation, "sector code must be between 1 and 16 characters")
	}
	s.Name = name
	s.Code = code
	return nil
}
