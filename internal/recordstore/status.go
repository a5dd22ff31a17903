package recordstore

import "time"

type Op string

const (
	OpFetch   Op = "fetch"
	OpRefresh Op = "refresh"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
)

// OpKey identifies one operation on one record. Fetches use an empty ID.
type OpKey struct {
	Op Op
	ID string
}

// OpStatus is the progress of the most recent call for an OpKey.
type OpStatus struct {
	Loading  bool
	Err      error
	Started  time.Time
	Finished time.Time
}

func (s *Store) begin(key OpKey) {
	s.status[key] = OpStatus{Loading: true, Started: s.now()}
}

func (s *Store) finish(key OpKey, err error) {
	st := s.status[key]
	st.Loading = false
	st.Err = err
	st.Finished = s.now()
	s.status[key] = st
	if err != nil {
		s.lastErr = err
	}
}

// Status reports the state of the latest op call for id.
func (s *Store) Status(op Op, id string) OpStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[OpKey{Op: op, ID: id}]
}

// Loading reports whether any operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.status {
		if st.Loading {
			return true
		}
	}
	return false
}

// LastError returns the most recent failure of any operation.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}
