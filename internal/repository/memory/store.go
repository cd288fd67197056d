// Package memory is an in-process storage backend with the same contracts as
// the PostgreSQL repositories. Transactions are emulated with snapshots.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
)

type txKey struct{}

type Store struct {
	// txMu serializes top-level transactions and writes made outside one.
	txMu sync.Mutex
	mu   sync.RWMutex

	entries    map[string]timesheet.Entry
	zones      map[string]geofence.Zone
	violations map[string]geofence.Violation

	now func() time.Time
}

var _ database.Transactor = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		entries:    map[string]timesheet.Entry{},
		zones:      map[string]geofence.Zone{},
		violations: map[string]geofence.Violation{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type snapshot struct {
	entries    map[string]timesheet.Entry
	zones      map[string]geofence.Zone
	violations map[string]geofence.Violation
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		entries:    cloneMap(s.entries),
		zones:      cloneMap(s.zones),
		violations: cloneMap(s.violations),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = snap.entries
	s.zones = snap.zones
	s.violations = snap.violations
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithinTransaction implements database.Transactor. Nested calls roll back
// only their own changes.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, true)
	}

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the write lock. Outside a transaction it also waits for
// any running transaction to finish.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}

// entryInScope mirrors the project/employee/date filters of the SQL repositories.
func entryInScope(e timesheet.Entry, projectID, employeeID, dateFrom, dateTo *string) bool {
	if projectID != nil && *projectID != "" && (e.ProjectID == nil || *e.ProjectID != *projectID) {
		return false
	}
	if employeeID != nil && *employeeID != "" && e.EmployeeID != *employeeID {
		return false
	}
	day := e.Date.Format(time.DateOnly)
	if dateFrom != nil && *dateFrom != "" && day < *dateFrom {
		return false
	}
	if dateTo != nil && *dateTo != "" && day > *dateTo {
		return false
	}
	return true
}
