// Package domain holds the shared vocabulary of the portal: typed identifiers
// and the closed enumerations for roles and lifecycle statuses.
//
// Identifiers are database serials. A zero value means "unset" and never names
// a stored row, so Parse* functions reject anything that is not a positive integer.
package domain

import (
	"strconv"
	"strings"

	dErrors "govportal/pkg/domain-errors"
)

type (
	AccountID  int64
	SectorID   int64
	FunctionID int64
	RequestID  int64
	RecordID   int64
)

func (id AccountID) IsZero() bool  { return id == 0 }
func (id SectorID) IsZero() bool   { return id == 0 }
func (id FunctionID) IsZero() bool { return id == 0 }
func (id RequestID) IsZero() bool  { return id == 0 }

func (id AccountID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id SectorID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id FunctionID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RequestID) String() string  { return strconv.FormatInt(int64(id), 10) }

// ParseAccountID parses an account identifier from external input.
func ParseAccountID(s string) (AccountID, error) {
	v, err := parseSerial(s, "account id")
	return AccountID(v), err
}

// ParseSectorID parses a sector identifier from external input.
func ParseSectorID(s string) (SectorID, error) {
	v, err := parseSerial(s, "sector id")
	return SectorID(v), err
}

// ParseFunctionID parses a function identifier from external input.
func ParseFunctionID(s string) (FunctionID, error) {
	v, err := parseSerial(s, "function id")
	return FunctionID(v), err
}

// ParseRequestID parses a registration request identifier from external input.
func ParseRequestID(s string) (RequestID, error) {
	v, err := parseSerial(s, "request id")
	return RequestID(v), err
}

func parseSerial(s, label string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return v, nil
}
