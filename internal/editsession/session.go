// Package editsession holds the working copy of the single patient record
// being edited and commits it through the record store.
package editsession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/patients/internal/domain/patient"
)

var (
	ErrNotEditing   = errors.New("no record is being edited")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidDate  = errors.New("invalid date of birth")
	ErrInvalidValue = errors.New("invalid value")
)

// Updater commits a partial update. *recordstore.Store satisfies it.
type Updater interface {
	Update(ctx context.Context, id string, u patient.Update) (patient.Patient, error)
}

type Field string

const (
	FieldFirstName  Field = "firstName"
	FieldMiddleName Field = "middleName"
	FieldLastName   Field = "lastName"
	FieldStatus     Field = "status"
	FieldStreet     Field = "street"
	FieldCity       Field = "city"
	FieldState      Field = "state"
	FieldZipCode    Field = "zipCode"
)

type DatePart string

const (
	Month DatePart = "month"
	Day   DatePart = "day"
	Year  DatePart = "year"
)

// Working is the editable copy of a record. The date of birth is held as
// separate month, day and year strings while editing.
type Working struct {
	FirstName  string
	MiddleName string
	LastName   string
	Status     patient.Status
	Street     string
	City       string
	State      string
	ZipCode    string
	Country    string
	Month      string
	Day        string
	Year       string
}

type Session struct {
	store  Updater
	loc    *time.Location
	logger zerolog.Logger

	mu      sync.Mutex
	id      string
	active  bool
	working Working
	// started holds the date parts as Start split them.
	started dateParts
	// epoch changes on every Start so a slow Save cannot close a newer edit.
	epoch uint64
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithLocation sets the calendar used to split and rebuild the date of
// birth. The default is UTC, where dates of birth are stored at midnight.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) { s.loc = loc }
}

func New(store Updater, opts ...Option) *Session {
	s := &Session{store: store, loc: time.UTC, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins editing p. An edit already in progress is discarded and its
// id returned.
func (s *Session) Start(p patient.Patient) (discarded string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active && s.id != p.ID {
		discarded = s.id
		s.logger.Warn().Str("patient_id", discarded).Str("next_patient_id", p.ID).Msg("discarding unsaved edit")
	}
	s.id = p.ID
	s.active = true
	s.epoch++
	s.working = Working{
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		Status:     p.Status,
		Street:     p.Street,
		City:       p.City,
		State:      p.State,
		ZipCode:    p.ZipCode,
		Country:    p.Country,
	}
	if p.DateOfBirth != nil {
		d := p.DateOfBirth.In(s.loc)
		s.working.Month = strconv.Itoa(int(d.Month()))
		s.working.Day = strconv.Itoa(d.Day())
		s.working.Year = strconv.Itoa(d.Year())
	}
	s.started = s.working.dateParts()
	return discarded
}

// Editing returns the id under edit.
func (s *Session) Editing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.active
}

// Working returns a copy of the working fields.
func (s *Session) Working() (Working, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working, s.active
}

func (s *Session) SetField(field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNotEditing
	}
	w := &s.working
	switch field {
	case FieldFirstName:
		w.FirstName = value
	case FieldMiddleName:
		w.MiddleName = value
	case FieldLastName:
		w.LastName = value
	case FieldStatus:
		st, err := patient.ParseStatus(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		w.Status = st
	case FieldStreet:
		w.Street = value
	case FieldCity:
		w.City = value
	case FieldState:
		w.State = value
	case FieldZipCode:
		w.ZipCode = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (s *Session) SetDatePart(part DatePart, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNotEditing
	}
	value = strings.TrimSpace(value)
	switch part {
	case Month:
		s.working.Month = value
	case Day:
		s.working.Day = value
	case Year:
		s.working.Year = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, part)
	}
	return nil
}

// Cancel discards the working copy. It reports whether an edit was active.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.active
	s.reset()
	return was
}

// Save commits every editable field. The date of birth is sent only when a
// date part changed, so other edits never rewrite it. On failure the session stays open so
// the user can retry or cancel.
func (s *Session) Save(ctx context.Context) (patient.Patient, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return patient.Patient{}, ErrNotEditing
	}
	id, epoch, w, started := s.id, s.epoch, s.working, s.started
	s.mu.Unlock()

	u, err := w.update(s.loc, started)
	if err != nil {
		return patient.Patient{}, err
	}

	saved, err := s.store.Update(ctx, id, *u)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", id).Msg("save failed, edit kept open")
		return patient.Patient{}, err
	}

	s.mu.Lock()
	if s.active && s.epoch == epoch {
		s.reset()
	}
	s.mu.Unlock()
	return saved, nil
}

func (s *Session) reset() {
	s.id = ""
	s.active = false
	s.working = Working{}
	s.started = dateParts{}
}

type dateParts struct {
	month, day, year string
}

func (w Working) dateParts() dateParts {
	return dateParts{month: w.Month, day: w.Day, year: w.Year}
}

func (w Working) update(loc *time.Location, started dateParts) (*patient.Update, error) {
	if strings.TrimSpace(w.FirstName) == "" || strings.TrimSpace(w.LastName) == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", ErrInvalidValue)
	}
	u := &patient.Update{
		FirstName:  &w.FirstName,
		MiddleName: &w.MiddleName,
		LastName:   &w.LastName,
		Street:     &w.Street,
		City:       &w.City,
		State:      &w.State,
		ZipCode:    &w.ZipCode,
	}
	if w.Status != "" {
		u.Status = &w.Status
	}
	if w.Country != "" {
		u.Country = &w.Country
	}
	if w.dateParts() == started {
		return u, nil
	}
	dob, err := w.dateOfBirth(loc)
	if err != nil {
		return nil, err
	}
	u.DateOfBirth = dob
	return u, nil
}

// dateOfBirth rebuilds midnight of the edited calendar date in loc. All three
// parts empty means the date is left unchanged.
func (w Working) dateOfBirth(loc *time.Location) (*time.Time, error) {
	if w.Month == "" && w.Day == "" && w.Year == "" {
		return nil, nil
	}
	m, errM := strconv.Atoi(w.Month)
	d, errD := strconv.Atoi(w.Day)
	y, errY := strconv.Atoi(w.Year)
	if errM != nil || errD != nil || errY != nil {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrInvalidDate, w.Month, w.Day, w.Year)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if y < 1 || t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil, fmt.Errorf("%w: %d/%d/%d", ErrInvalidDate, m, d, y)
	}
	return &t, nil
}

// SplitDate parses "M/D/YYYY" into its parts.
func SplitDate(s string) (month, day, year string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: want M/D/YYYY, got %q", ErrInvalidDate, s)
	}
	return parts[0], parts[1], parts[2], nil
}
