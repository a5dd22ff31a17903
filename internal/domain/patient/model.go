package patient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by repositories and clients when no patient exists
// for the requested id.
var ErrNotFound = errors.New("patient not found")

// DefaultCountry is the only country patients are registered in.
const DefaultCountry = "United States"

type Status string

const (
	StatusInquiry    Status = "Inquiry"
	StatusOnboarding Status = "Onboarding"
	StatusActive     Status = "Active"
	StatusChurned    Status = "Churned"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusInquiry, StatusOnboarding, StatusActive, StatusChurned}

func (s Status) Valid() bool {
	switch s {
	case StatusInquiry, StatusOnboarding, StatusActive, StatusChurned:
		return true
	}
	return false
}

// Color is the display bucket used when rendering a status tag.
func (s Status) Color() string {
	switch s {
	case StatusInquiry:
		return "blue"
	case StatusOnboarding:
		return "yellow"
	case StatusActive:
		return "green"
	case StatusChurned:
		return "red"
	default:
		return "gray"
	}
}

// ParseStatus matches a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Patient is a single patient record as stored and sent on the wire.
type Patient struct {
	ID          string     `json:"id" validate:"required"`
	FirstName   string     `json:"firstName" validate:"required"`
	MiddleName  string     `json:"middleName,omitempty"`
	LastName    string     `json:"lastName" validate:"required"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Status      Status     `json:"status" validate:"patient_status"`
	Street      string     `json:"street"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	ZipCode     string     `json:"zipCode"`
	Country     string     `json:"country"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FullName joins first, middle and last name with single spaces.
func (p *Patient) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Draft holds the caller-supplied fields of a patient that does not exist yet.
type Draft struct {
	FirstName   string     `json:"firstName"`
	MiddleName  string     `json:"middleName,omitempty"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Street      string     `json:"street"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	ZipCode     string     `json:"zipCode"`
}

// Patient builds the record submitted for creation.
func (d Draft) Patient(id string) *Patient {
	return &Patient{
		ID:          id,
		FirstName:   d.FirstName,
		MiddleName:  d.MiddleName,
		LastName:    d.LastName,
		DateOfBirth: d.DateOfBirth,
		Status:      d.Status,
		Street:      d.Street,
		City:        d.City,
		State:       d.State,
		ZipCode:     d.ZipCode,
		Country:     DefaultCountry,
	}
}

// Update is a partial set of patient fields. Nil fields are left untouched.
// id, createdAt and updatedAt are not updatable.
type Update struct {
	FirstName   *string    `json:"firstName,omitempty" validate:"omitnil,min=1"`
	MiddleName  *string    `json:"middleName,omitempty"`
	LastName    *string    `json:"lastName,omitempty" validate:"omitnil,min=1"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Status      *Status    `json:"status,omitempty" validate:"omitnil,patient_status"`
	Street      *string    `json:"street,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	ZipCode     *string    `json:"zipCode,omitempty"`
	Country     *string    `json:"country,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u *Update) IsEmpty() bool {
	return u.FirstName == nil && u.MiddleName == nil && u.LastName == nil &&
		u.DateOfBirth == nil && u.Status == nil && u.Street == nil &&
		u.City == nil && u.State == nil && u.ZipCode == nil && u.Country == nil
}

// Apply copies every set field of u onto p.
func (u *Update) Apply(p *Patient) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.MiddleName != nil {
		p.MiddleName = *u.MiddleName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		p.DateOfBirth = &dob
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Street != nil {
		p.Street = *u.Street
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.State != nil {
		p.State = *u.State
	}
	if u.ZipCode != nil {
		p.ZipCode = *u.ZipCode
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
}

// UpdateFrom returns an update that sets every editable field of p.
func UpdateFrom(p *Patient) *Update {
	u := &Update{
		FirstName:  ptr(p.FirstName),
		MiddleName: ptr(p.MiddleName),
		LastName:   ptr(p.LastName),
		Status:     ptr(p.Status),
		Street:     ptr(p.Street),
		City:       ptr(p.City),
		State:      ptr(p.State),
		ZipCode:    ptr(p.ZipCode),
		Country:    ptr(p.Country),
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = ptr(*p.DateOfBirth)
	}
	return u
}

func ptr[T any](v T) *T { return &v }

// Sortable columns for server-side ordering, keyed by their wire name.
var orderColumns = map[string]string{
	"id":          "id",
	"firstName":   "first_name",
	"lastName":    "last_name",
	"dateOfBirth": "date_of_birth",
	"status":      "status",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// ListOrder is the body of the ordered list request.
type ListOrder struct {
	OrderBy string `json:"orderBy,omitempty"`
	Asc     *bool  `json:"asc,omitempty"`
}

// DefaultListOrder sorts by creation time, oldest first.
func DefaultListOrder() ListOrder {
	asc := true
	return ListOrder{OrderBy: "createdAt", Asc: &asc}
}

// Normalize fills in defaults and validates the column.
func (o ListOrder) Normalize() (ListOrder, error) {
	if o.OrderBy == "" {
		o.OrderBy = "createdAt"
	}
	if _, ok := orderColumns[o.OrderBy]; !ok {
		return o, fmt.Errorf("invalid orderBy %q", o.OrderBy)
	}
	if o.Asc == nil {
		asc := true
		o.Asc = &asc
	}
	return o, nil
}

// SQL renders the ORDER BY clause. The order must be normalized first.
func (o ListOrder) SQL() string {
	dir := "ASC"
	if o.Asc != nil && !*o.Asc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", orderColumns[o.OrderBy], dir, dir)
}
