// Package recordstore keeps a local copy of the patient collection in step
// with the server. Every change goes to the server first and is applied
// locally only from the server's answer.
package recordstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/patients/internal/domain/patient"
)

// Remote is the server side of the store. Delete returns a nil patient and
// nil error when nothing was deleted.
type Remote interface {
	List(ctx context.Context) ([]patient.Patient, error)
	ListOrdered(ctx context.Context, order patient.ListOrder) ([]patient.Patient, error)
	Get(ctx context.Context, id string) (*patient.Patient, error)
	Create(ctx context.Context, p *patient.Patient) (*patient.Patient, error)
	Update(ctx context.Context, id string, u *patient.Update) (*patient.Patient, error)
	Delete(ctx context.Context, id string) (*patient.Patient, error)
}

type Store struct {
	remote Remote
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time

	mu    sync.RWMutex
	byID  map[string]*patient.Patient
	order []string
	// gen advances when a fetch starts or a mutation is applied.
	gen      uint64
	fetchGen uint64
	status   map[OpKey]OpStatus
	lastErr  error
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator replaces the UUID generator used for new records.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		logger: zerolog.Nop(),
		newID:  func() string { return uuid.NewString() },
		now:    time.Now,
		byID:   make(map[string]*patient.Patient),
		status: make(map[OpKey]OpStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll replaces the local collection with the server's in default order.
func (s *Store) FetchAll(ctx context.Context) error {
	return s.fetch(ctx, func(ctx context.Context) ([]patient.Patient, error) {
		return s.remote.List(ctx)
	})
}

// FetchOrdered replaces the local collection using the server-side sort.
func (s *Store) FetchOrdered(ctx context.Context, order patient.ListOrder) error {
	return s.fetch(ctx, func(ctx context.Context) ([]patient.Patient, error) {
		return s.remote.ListOrdered(ctx, order)
	})
}

func (s *Store) fetch(ctx context.Context, list func(context.Context) ([]patient.Patient, error)) error {
	key := OpKey{Op: OpFetch}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.fetchGen = gen
	s.begin(key)
	s.mu.Unlock()

	items, err := list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.fetchGen == gen
	if err != nil {
		opErr := &OpError{Op: OpFetch, Kind: ErrFetchFailed, Err: err}
		if latest {
			s.finish(key, opErr)
		} else {
			// A newer fetch owns the status entry; the failure still counts.
			s.lastErr = opErr
		}
		s.logger.Warn().Err(err).Msg("fetch patients failed")
		return opErr
	}
	if s.gen != gen {
		if latest {
			s.finish(key, nil)
		}
		s.logger.Debug().Uint64("generation", gen).Uint64("current", s.gen).Msg("discarding stale fetch")
		return ErrSuperseded
	}

	s.byID = make(map[string]*patient.Patient, len(items))
	s.order = s.order[:0]
	for i := range items {
		s.put(items[i])
	}
	s.finish(key, nil)
	s.logger.Debug().Int("count", len(items)).Msg("patients fetched")
	return nil
}

// Refresh re-reads one record from the server and stores it locally.
func (s *Store) Refresh(ctx context.Context, id string) (patient.Patient, error) {
	key := OpKey{Op: OpRefresh, ID: id}
	s.lock(func() { s.begin(key) })

	p, err := s.remote.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		opErr := &OpError{Op: OpRefresh, ID: id, Kind: ErrFetchFailed, Err: err}
		if errors.Is(err, patient.ErrNotFound) {
			opErr.Kind = ErrNotFound
		}
		s.finish(key, opErr)
		return patient.Patient{}, opErr
	}
	s.put(*p)
	s.gen++
	s.finish(key, nil)
	return *p, nil
}

// Create assigns a new id, submits the draft, and inserts the row the server
// returns. The collection is unchanged on failure.
func (s *Store) Create(ctx context.Context, d patient.Draft) (patient.Patient, error) {
	p := d.Patient(s.newID())
	key := OpKey{Op: OpCreate, ID: p.ID}
	s.lock(func() { s.begin(key) })

	created, err := s.remote.Create(ctx, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		opErr := &OpError{Op: OpCreate, ID: p.ID, Kind: ErrCreateFailed, Err: err}
		s.finish(key, opErr)
		s.logger.Warn().Err(err).Str("patient_id", p.ID).Msg("create patient failed")
		return patient.Patient{}, opErr
	}
	if created == nil {
		created = p
	}
	s.put(*created)
	s.gen++
	s.finish(key, nil)
	s.logger.Info().Str("patient_id", created.ID).Msg("patient created")
	return *created, nil
}

// Update sends u and merges the server's row into the local entry, keeping
// its display position. Prior values are kept on failure.
func (s *Store) Update(ctx context.Context, id string, u patient.Update) (patient.Patient, error) {
	key := OpKey{Op: OpUpdate, ID: id}
	s.lock(func() { s.begin(key) })

	updated, err := s.remote.Update(ctx, id, &u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		opErr := &OpError{Op: OpUpdate, ID: id, Kind: ErrUpdateFailed, Err: err}
		if errors.Is(err, patient.ErrNotFound) {
			opErr.Kind = ErrNotFound
		}
		s.finish(key, opErr)
		s.logger.Warn().Err(err).Str("patient_id", id).Msg("update patient failed")
		return patient.Patient{}, opErr
	}
	if existing, ok := s.byID[id]; ok {
		*existing = *updated
	} else {
		s.put(*updated)
	}
	s.gen++
	s.finish(key, nil)
	s.logger.Info().Str("patient_id", id).Msg("patient updated")
	return *updated, nil
}

// Delete removes the record locally once the server confirms it.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := OpKey{Op: OpDelete, ID: id}
	s.lock(func() { s.begin(key) })

	deleted, err := s.remote.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		opErr := &OpError{Op: OpDelete, ID: id, Kind: ErrDeleteFailed, Err: err}
		s.finish(key, opErr)
		s.logger.Warn().Err(err).Str("patient_id", id).Msg("delete patient failed")
		return opErr
	}
	if deleted == nil {
		opErr := &OpError{Op: OpDelete, ID: id, Kind: ErrNotFound}
		s.finish(key, opErr)
		return opErr
	}
	s.remove(id)
	s.gen++
	for k := range s.status {
		if k.ID == id && k != key {
			delete(s.status, k)
		}
	}
	s.finish(key, nil)
	s.logger.Info().Str("patient_id", id).Msg("patient deleted")
	return nil
}

// Records returns a copy of the collection in display order.
func (s *Store) Records() []patient.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]patient.Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

func (s *Store) Get(id string) (patient.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return patient.Patient{}, false
	}
	return *p, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) lock(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

// put inserts p or overwrites the entry with the same id in place.
func (s *Store) put(p patient.Patient) {
	if existing, ok := s.byID[p.ID]; ok {
		*existing = p
		return
	}
	cp := p
	s.byID[p.ID] = &cp
	s.order = append(s.order, p.ID)
}

func (s *Store) remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
