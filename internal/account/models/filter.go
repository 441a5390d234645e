package models

import "govportal/pkg/domain"

// ListFilter narrows an account listing. Zero values mean "no constraint".
type ListFilter struct {
	SectorID domain.SectorID
	Statuses []domain.AccountStatus
	// Search matches name, email or sector code, case-insensitively.
	Search string
	Limit  int
	Offset int
}

// Dependents counts rows that reference an account and block its deletion.
type Dependents struct {
	AuditRecords  int
	Registrations int
	Created       int
	External      int
}

func (d Dependents) Total() int {
	return d.AuditRecords + d.Registrations + d.Created + d.External
}
