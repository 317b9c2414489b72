// Package printer provides the bounded printer registry and the connector
// that yields a writable endpoint for a named printer.
//
// A printer is pinned to exactly one file type for its whole lifetime and
// moves through three states: disabled (declared but not accepting work),
// idle (ready) and busy (a pipeline is writing to it). Printers are never
// deleted; the registry lives as long as the spooler process.
//
// Key types:
//   - [Printer] - A named endpoint with its type and status
//   - [Registry] - Fixed-capacity printer collection
//   - [Connector] - Source of writable printer endpoints
//   - [SpoolDirConnector] - Production connector writing into a spool directory
package printer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"spoold/internal/registry"
)

// ErrDuplicateName is returned when a printer name is already taken.
var ErrDuplicateName = errors.New("duplicate printer name")

// ErrFull is returned when the registry is at capacity.
var ErrFull = errors.New("printer registry full")

// ErrNotFound is returned when no printer has the given name.
var ErrNotFound = errors.New("no such printer")

// Status is the printer state.
type Status int

const (
	// StatusDisabled is the state of every freshly declared printer.
	StatusDisabled Status = iota
	// StatusIdle means the printer accepts work.
	StatusIdle
	// StatusBusy means a job's pipeline currently owns the printer.
	StatusBusy
)

// String returns the lowercase status word used in listings and events.
func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Printer is a named endpoint accepting exactly one file type.
//
// Status is mutated only by the spooler's shell goroutine. Jobs reference
// printers without owning them; the registry outlives every job.
type Printer struct {
	Name   string
	Type   *registry.FileType
	Status Status
}

// Registry is the fixed-capacity printer collection. Insertion order is
// significant: [Registry.SelectCompatible] scans in declaration order.
type Registry struct {
	log      *zap.Logger
	capacity int
	printers []*Printer
	byName   map[string]*Printer
}

// NewRegistry creates a registry holding at most capacity printers.
func NewRegistry(log *zap.Logger, capacity int) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:      log.Named("printers"),
		capacity: capacity,
		byName:   make(map[string]*Printer),
	}
}

// Add declares a printer in the disabled state.
func (r *Registry) Add(name string, typ *registry.FileType) (*Printer, error) {
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}
	if len(r.printers) >= r.capacity {
		return nil, ErrFull
	}
	p := &Printer{Name: name, Type: typ, Status: StatusDisabled}
	r.printers = append(r.printers, p)
	r.byName[name] = p
	r.log.Info("printer defined", zap.String("printer", name), zap.String("type", typ.Name))
	return p, nil
}

// Get looks up a printer by name.
func (r *Registry) Get(name string) (*Printer, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// List returns all printers in declaration order.
func (r *Registry) List() []*Printer {
	return r.printers
}

// Enable moves a printer to idle. Enabling an already enabled printer is a
// no-op; the returned flag reports whether the status actually changed, so
// the caller can suppress duplicate status events.
func (r *Registry) Enable(name string) (*Printer, bool, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, false, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if p.Status != StatusDisabled {
		return p, false, nil
	}
	p.Status = StatusIdle
	r.log.Info("printer enabled", zap.String("printer", name))
	return p, true, nil
}

// SelectCompatible picks an idle printer for a job of the given type.
// A printer accepting the type directly is preferred over one that needs a
// conversion pipeline; within each class the earliest declared printer
// wins. Returns nil when no idle printer can take the type.
func (r *Registry) SelectCompatible(from *registry.FileType, conv *registry.Registry) *Printer {
	for _, p := range r.printers {
		if p.Status == StatusIdle && p.Type == from {
			return p
		}
	}
	for _, p := range r.printers {
		if p.Status == StatusIdle && conv.Reachable(from, p.Type) {
			return p
		}
	}
	return nil
}
