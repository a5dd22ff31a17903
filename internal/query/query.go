// Package query derives the visible, ordered subset of patient records from
// a search term, field filters and a sort directive. Everything here is pure.
package query

import (
	"strings"

	"github.com/ehr/patients/internal/domain/patient"
)

// Match reports whether p satisfies the search term and every active filter.
func Match(p *patient.Patient, search string, f Filters) bool {
	name := p.FirstName + " " + p.LastName
	if search != "" && !containsFold(name, search) && !containsFold(string(p.Status), search) {
		return false
	}
	if f.Name != "" && !containsFold(name, f.Name) {
		return false
	}
	if f.City != "" && !containsFold(p.City, f.City) {
		return false
	}
	if f.State != "" && !containsFold(p.State, f.State) {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if !f.DateOfBirth.Contains(p.DateOfBirth) {
		return false
	}
	created := p.CreatedAt
	return f.CreatedAt.Contains(&created)
}

// Filter keeps the records that match, preserving order.
func Filter(records []patient.Patient, search string, f Filters) []patient.Patient {
	out := make([]patient.Patient, 0, len(records))
	for i := range records {
		if Match(&records[i], search, f) {
			out = append(out, records[i])
		}
	}
	return out
}

// Visible filters then sorts records.
func Visible(records []patient.Patient, search string, f Filters, o Order) []patient.Patient {
	return Sort(Filter(records, search, f), o)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
