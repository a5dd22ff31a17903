package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	patients map[string]*Patient
	clock    time.Time
	failNext error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients: make(map[string]*Patient),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *mockRepo) take() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if err := m.take(); err != nil {
		return err
	}
	if _, ok := m.patients[p.ID]; ok {
		return fmt.Errorf("duplicate id %s", p.ID)
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, id string, u *Update) (*Patient, error) {
	if err := m.take(); err != nil {
		return nil, err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(p)
	p.UpdatedAt = m.tick()
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.patients, id)
	return p, nil
}

func (m *mockRepo) List(_ context.Context, order ListOrder) ([]*Patient, error) {
	if err := m.take(); err != nil {
		return nil, err
	}
	result := []*Patient{}
	for _, p := range m.patients {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		less := result[i].CreatedAt.Before(result[j].CreatedAt)
		if order.OrderBy == "firstName" {
			less = result[i].FirstName < result[j].FirstName
		}
		if order.Asc != nil && !*order.Asc {
			return !less
		}
		return less
	})
	return result, nil
}

func (m *mockRepo) DeleteAll(_ context.Context) error {
	m.patients = make(map[string]*Patient)
	return nil
}

func (m *mockRepo) Ping(_ context.Context) error { return nil }

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestService_CreatePatient_Defaults(t *testing.T) {
	svc, _ := newTestService()
	p := &Patient{ID: "p-1", FirstName: "Amy", LastName: "Adams"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusInquiry {
		t.Errorf("expected Inquiry, got %s", p.Status)
	}
	if p.Country != DefaultCountry {
		t.Errorf("expected %q, got %q", DefaultCountry, p.Country)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set by the repository")
	}
}

func TestService_CreatePatient_PresenceChecks(t *testing.T) {
	svc, _ := newTestService()
	cases := []*Patient{
		{FirstName: "Amy", LastName: "Adams"},
		{ID: "p-1", LastName: "Adams"},
		{ID: "p-1", FirstName: "Amy"},
		{ID: "p-1", FirstName: "Amy", LastName: "Adams", Status: "Deceased"},
	}
	for _, p := range cases {
		err := svc.CreatePatient(context.Background(), p)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for %+v, got %v", p, err)
		}
	}
}

func TestService_CreatePatient_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.failNext = errors.New("disk full")
	err := svc.CreatePatient(context.Background(), &Patient{ID: "p-1", FirstName: "A", LastName: "B"})
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestService_UpdatePatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := &Patient{ID: "p-1", FirstName: "Amy", LastName: "Adams"}
	svc.CreatePatient(ctx, p)

	city := "Austin"
	status := StatusActive
	got, err := svc.UpdatePatient(ctx, "p-1", &Update{City: &city, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.City != "Austin" || got.Status != StatusActive {
		t.Errorf("update not applied: %+v", got)
	}
	if got.FirstName != "Amy" {
		t.Errorf("untouched field changed: %s", got.FirstName)
	}
	if got.UpdatedAt.Before(p.UpdatedAt) {
		t.Error("updatedAt decreased")
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Error("createdAt changed")
	}
}

func TestService_UpdatePatient_Validation(t *testing.T) {
	svc, _ := newTestService()
	empty := ""
	if _, err := svc.UpdatePatient(context.Background(), "p-1", &Update{FirstName: &empty}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	bad := Status("Unknown")
	if _, err := svc.UpdatePatient(context.Background(), "p-1", &Update{Status: &bad}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestService_UpdatePatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	city := "Austin"
	if _, err := svc.UpdatePatient(context.Background(), "missing", &Update{City: &city}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListPatients_InvalidOrder(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ListPatients(context.Background(), ListOrder{OrderBy: "ssn"})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestService_Reset(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	svc.CreatePatient(ctx, &Patient{ID: "old", FirstName: "Old", LastName: "One"})

	n, err := svc.Reset(ctx, []*Patient{
		{ID: "a", FirstName: "A", LastName: "A"},
		{ID: "b", FirstName: "B", LastName: "B"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(repo.patients) != 2 {
		t.Errorf("expected 2 patients, got n=%d stored=%d", n, len(repo.patients))
	}
	if _, ok := repo.patients["old"]; ok {
		t.Error("expected previous patients to be cleared")
	}
}
