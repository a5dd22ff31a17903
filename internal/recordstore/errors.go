package recordstore

import (
	"errors"
	"fmt"

	"github.com/ehr/patients/internal/domain/patient"
)

var (
	ErrFetchFailed  = errors.New("failed to fetch patients")
	ErrCreateFailed = errors.New("failed to create patient")
	ErrUpdateFailed = errors.New("failed to update patient")
	ErrDeleteFailed = errors.New("failed to delete patient")
	// ErrNotFound is patient.ErrNotFound so either can be matched.
	ErrNotFound = patient.ErrNotFound
	// ErrSuperseded is returned by a fetch whose response was discarded
	// because newer state arrived while it was in flight.
	ErrSuperseded = errors.New("fetch superseded by newer state")
)

// OpError describes a failed store operation. It unwraps to both its kind
// (one of the sentinels above) and the underlying cause.
type OpError struct {
	Op   Op
	ID   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Kind.Error()
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s", msg, e.ID)
	}
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
