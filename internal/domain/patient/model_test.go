package patient

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPatient_JSONFieldNames(t *testing.T) {
	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	p := Patient{ID: "p-1", FirstName: "Amy", LastName: "Adams", DateOfBirth: &dob, ZipCode: "73301", Status: StatusActive}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"firstName"`, `"lastName"`, `"dateOfBirth"`, `"zipCode"`, `"createdAt"`, `"updatedAt"`, `"status":"Active"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
	if strings.Contains(string(data), "middleName") {
		t.Error("expected empty middleName to be omitted")
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("inquiry").Valid() {
		t.Error("status check must be case-sensitive")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" onboarding ")
	if err != nil || s != StatusOnboarding {
		t.Errorf("expected Onboarding, got %q %v", s, err)
	}
	if _, err := ParseStatus("lost"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestPatient_FullName(t *testing.T) {
	p := Patient{FirstName: "Mary", MiddleName: "Ann", LastName: "Jones"}
	if got := p.FullName(); got != "Mary Ann Jones" {
		t.Errorf("got %q", got)
	}
	p.MiddleName = ""
	if got := p.FullName(); got != "Mary Jones" {
		t.Errorf("got %q", got)
	}
}

func TestDraft_PatientForcesCountry(t *testing.T) {
	p := Draft{FirstName: "A", LastName: "B"}.Patient("id-1")
	if p.ID != "id-1" || p.Country != DefaultCountry {
		t.Errorf("unexpected patient: %+v", p)
	}
}

func TestUpdate_Apply(t *testing.T) {
	p := &Patient{FirstName: "Amy", City: "Austin", Status: StatusInquiry}
	city := "Boston"
	status := StatusChurned
	u := &Update{City: &city, Status: &status}
	u.Apply(p)
	if p.City != "Boston" || p.Status != StatusChurned || p.FirstName != "Amy" {
		t.Errorf("unexpected result: %+v", p)
	}
}

func TestUpdate_IsEmpty(t *testing.T) {
	if !(&Update{}).IsEmpty() {
		t.Error("expected zero update to be empty")
	}
	name := "x"
	if (&Update{LastName: &name}).IsEmpty() {
		t.Error("expected update with lastName to be non-empty")
	}
}

func TestUpdateFrom_CopiesDOB(t *testing.T) {
	dob := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	p := &Patient{FirstName: "A", DateOfBirth: &dob}
	u := UpdateFrom(p)
	if u.DateOfBirth == nil || !u.DateOfBirth.Equal(dob) {
		t.Fatalf("expected dob, got %v", u.DateOfBirth)
	}
	if u.DateOfBirth == p.DateOfBirth {
		t.Error("expected dob to be copied, not aliased")
	}
}

func TestListOrder_Normalize(t *testing.T) {
	o, err := ListOrder{}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.OrderBy != "createdAt" || o.Asc == nil || !*o.Asc {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if got := o.SQL(); got != "created_at ASC, id ASC" {
		t.Errorf("got %q", got)
	}

	asc := false
	o, _ = ListOrder{OrderBy: "lastName", Asc: &asc}.Normalize()
	if got := o.SQL(); got != "last_name DESC, id DESC" {
		t.Errorf("got %q", got)
	}

	if _, err := (ListOrder{OrderBy: "first_name; DROP TABLE patients"}).Normalize(); err == nil {
		t.Error("expected error for unknown column")
	}
}
