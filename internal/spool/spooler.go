// Package spool holds the job store, the scheduler and the lifecycle
// reactor: the bookkeeping heart of the spooler.
//
// All methods of [Spooler] must be called from a single goroutine (the
// shell loop). Child processes provide the parallelism; their lifecycle
// observations arrive as [pipeline.Event] values which the same goroutine
// feeds into [Spooler.HandleEvent]. With one mutator there is nothing to
// lock, and a printer freed by a terminal event is visible to the very
// next scheduling pass.
//
// Key types:
//   - [Spooler] - Facade over registries, job store, scheduler and reactor
//   - [Job] - One print request and its state
//   - [Sink] - Receiver for externally observable events
package spool

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"spoold/internal/pipeline"
	"spoold/internal/printer"
	"spoold/internal/registry"
)

// ErrStoreFull is returned when the job store is at capacity.
var ErrStoreFull = errors.New("job store full")

// ErrEmptyPath is returned when a submission names no file.
var ErrEmptyPath = errors.New("empty input path")

// ErrUnknownJob is returned when no job has the given id.
var ErrUnknownJob = errors.New("no such job")

// ErrBadJobState is returned when an operation's state precondition fails,
// e.g. pausing a job that is not running.
var ErrBadJobState = errors.New("job not in a valid state for this operation")

// ErrPrinterUnavailable is returned when an explicitly requested printer
// is not idle. A busy printer is rejected even when compatible.
var ErrPrinterUnavailable = errors.New("printer not idle")

// ErrNoConversion is returned when no conversion path leads from the
// job's type to the requested printer's type.
var ErrNoConversion = errors.New("no conversion path")

// DefaultRetention is how long finished and aborted jobs linger before a
// sweep removes them.
const DefaultRetention = 10 * time.Second

// Launcher starts pipelines. Satisfied by [pipeline.Engine]; tests inject
// fakes to exercise scheduling without child processes.
type Launcher interface {
	Launch(inputPath string, argvs [][]string, sink *os.File) (*pipeline.Pipeline, error)
}

// Options configures a [Spooler]. Zero fields get working defaults, except
// Types, Printers, Connector and Launcher, which are required.
type Options struct {
	Log       *zap.Logger
	Sink      Sink
	Types     *registry.Registry
	Printers  *printer.Registry
	Connector printer.Connector
	Launcher  Launcher

	// Passthrough is the argv used when the job's type already matches
	// the printer's type. Defaults to {"cat"}.
	Passthrough []string
	// Retention is the terminal-job grace period before sweeping.
	Retention time.Duration
	// MaxJobs bounds the job store.
	MaxJobs int
}

// Spooler owns the job store and drives scheduling and reconciliation.
type Spooler struct {
	log       *zap.Logger
	sink      Sink
	types     *registry.Registry
	printers  *printer.Registry
	connector printer.Connector
	launcher  Launcher

	passthrough []string
	retention   time.Duration
	maxJobs     int

	jobs []*Job

	// Injection points for tests: wall clock and group signaling.
	now    func() time.Time
	signal func(pgid int, sig syscall.Signal) error
}

// New creates a Spooler from opts.
func New(opts Options) *Spooler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	passthrough := opts.Passthrough
	if len(passthrough) == 0 {
		passthrough = []string{"cat"}
	}
	retention := opts.Retention
	if retention == 0 {
		retention = DefaultRetention
	}
	maxJobs := opts.MaxJobs
	if maxJobs == 0 {
		maxJobs = 64
	}
	return &Spooler{
		log:         log.Named("spool"),
		sink:        sink,
		types:       opts.Types,
		printers:    opts.Printers,
		connector:   opts.Connector,
		launcher:    opts.Launcher,
		passthrough: passthrough,
		retention:   retention,
		maxJobs:     maxJobs,
		now:         time.Now,
		signal:      pipeline.Signal,
	}
}

// Types exposes the type and conversion registry.
func (s *Spooler) Types() *registry.Registry { return s.types }

// DefineType declares a file type.
func (s *Spooler) DefineType(name string) error {
	_, err := s.types.DefineType(name)
	return err
}

// DefineConversion declares a conversion edge between two declared types.
func (s *Spooler) DefineConversion(from, to string, argv []string) error {
	_, err := s.types.DefineConversion(from, to, argv)
	return err
}

// AddPrinter declares a printer in the disabled state.
func (s *Spooler) AddPrinter(name, typeName string) error {
	ft, ok := s.types.Type(typeName)
	if !ok {
		return fmt.Errorf("%q: %w", typeName, registry.ErrUnknownType)
	}
	if _, err := s.printers.Add(name, ft); err != nil {
		return err
	}
	s.sink.PrinterDefined(name, typeName)
	return nil
}

// EnablePrinter moves a printer to idle and runs a scheduling pass.
// Enabling an already enabled printer is a no-op and emits nothing.
func (s *Spooler) EnablePrinter(name string) error {
	_, changed, err := s.printers.Enable(name)
	if err != nil {
		return err
	}
	if changed {
		s.sink.PrinterStatus(name, printer.StatusIdle)
		s.TrySchedule()
	}
	return nil
}

// Printers lists all printers in declaration order.
func (s *Spooler) Printers() []*printer.Printer { return s.printers.List() }

// Jobs lists all stored jobs in id order.
func (s *Spooler) Jobs() []*Job { return s.jobs }

// Job returns the job with the given id.
func (s *Spooler) Job(id int) (*Job, error) {
	if id < 0 || id >= len(s.jobs) {
		return nil, fmt.Errorf("%d: %w", id, ErrUnknownJob)
	}
	return s.jobs[id], nil
}

// Submit accepts a file for printing. With printerName empty the scheduler
// picks a compatible idle printer, possibly later; otherwise the named
// printer must be idle and reachable from the file's type, and the
// pipeline starts immediately.
//
// When an immediate launch fails the job record is freed again and the
// error is returned; no job or printer state survives the failure.
func (s *Spooler) Submit(path, printerName string) (*Job, error) {
	if len(s.jobs) >= s.maxJobs {
		return nil, ErrStoreFull
	}
	if path == "" {
		return nil, ErrEmptyPath
	}
	ft, err := s.types.InferType(path)
	if err != nil {
		return nil, err
	}

	var target *printer.Printer
	if printerName != "" {
		p, ok := s.printers.Get(printerName)
		if !ok {
			return nil, fmt.Errorf("%q: %w", printerName, printer.ErrNotFound)
		}
		if p.Status != printer.StatusIdle {
			return nil, fmt.Errorf("%q: %w", printerName, ErrPrinterUnavailable)
		}
		if p.Type != ft && s.types.FindPath(ft, p.Type) == nil {
			return nil, fmt.Errorf("%s to %s: %w", ft.Name, p.Type.Name, ErrNoConversion)
		}
		target = p
	}

	now := s.now()
	job := &Job{
		ID:              len(s.jobs),
		InputPath:       path,
		Type:            ft,
		Status:          JobCreated,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
	s.jobs = append(s.jobs, job)
	s.sink.JobCreated(job.ID, path, ft.Name)

	if target == nil {
		s.sink.JobStatus(job.ID, JobCreated)
		s.TrySchedule()
		return job, nil
	}

	if err := s.launch(job, target); err != nil {
		s.jobs = s.jobs[:len(s.jobs)-1]
		return nil, err
	}
	return job, nil
}

// launch resolves the conversion path, connects the printer and starts the
// pipeline, moving job and printer into their active states on success.
func (s *Spooler) launch(j *Job, p *printer.Printer) error {
	path := s.types.FindPath(j.Type, p.Type)
	if path == nil {
		return fmt.Errorf("%s to %s: %w", j.Type.Name, p.Type.Name, ErrNoConversion)
	}

	argvs := make([][]string, 0, len(path)+1)
	if len(path) == 0 {
		argvs = append(argvs, s.passthrough)
	} else {
		for _, c := range path {
			argvs = append(argvs, c.Argv)
		}
	}

	sink, err := s.connector.Connect(p.Name, p.Type)
	if err != nil {
		return err
	}
	pl, err := s.launcher.Launch(j.InputPath, argvs, sink)
	if err != nil {
		return err
	}

	j.PGID = pl.PGID
	j.Printer = p
	j.Stages = pl.Stages
	s.transition(j, JobRunning)
	p.Status = printer.StatusBusy
	s.sink.PrinterStatus(p.Name, printer.StatusBusy)
	s.sink.JobStarted(j.ID, p.Name, pl.PGID, pl.Stages)

	s.log.Info("job started",
		zap.Int("job", j.ID),
		zap.String("printer", p.Name),
		zap.Int("pgid", pl.PGID),
		zap.Strings("stages", pl.Stages))
	return nil
}

// TrySchedule matches created jobs to idle compatible printers, in id
// order. One pass per trigger suffices: every trigger (submission, printer
// enable, job reaching a terminal state) frees or adds at most what a
// single pass can consume.
func (s *Spooler) TrySchedule() {
	for _, j := range s.jobs {
		if j.Status != JobCreated {
			continue
		}
		p := s.printers.SelectCompatible(j.Type, s.types)
		if p == nil {
			continue
		}
		if err := s.launch(j, p); err != nil {
			// The job stays created and the printer idle; the next
			// trigger retries.
			s.log.Warn("scheduled launch failed", zap.Int("job", j.ID), zap.Error(err))
		}
	}
}

// Cancel aborts a job. A created job aborts in place. A running or paused
// job's group gets SIGCONT (if paused) then SIGTERM, and the job is
// reported aborted immediately without waiting for the group to die; the
// reactor treats the eventual exit event of an already-aborted job as a
// no-op. Cancel of a terminal job fails.
func (s *Spooler) Cancel(id int) error {
	j, err := s.Job(id)
	if err != nil {
		return err
	}

	switch j.Status {
	case JobCreated:
		s.transition(j, JobAborted)
		s.sink.JobAborted(j.ID, 0)
		return nil

	case JobRunning, JobPaused:
		if j.Status == JobPaused {
			// A stopped group never sees SIGTERM; wake it first.
			if err := s.signal(j.PGID, syscall.SIGCONT); err != nil {
				s.log.Warn("SIGCONT failed", zap.Int("pgid", j.PGID), zap.Error(err))
			}
		}
		if err := s.signal(j.PGID, syscall.SIGTERM); err != nil {
			s.log.Warn("SIGTERM failed", zap.Int("pgid", j.PGID), zap.Error(err))
		}
		p := j.Printer
		j.PGID = 0
		s.transition(j, JobAborted)
		s.sink.JobAborted(j.ID, int(syscall.SIGTERM))
		s.releasePrinter(p)
		s.TrySchedule()
		return nil

	default:
		return fmt.Errorf("cancel job %d (%s): %w", id, j.Status, ErrBadJobState)
	}
}

// Pause stops a running job's process group. The status flips to paused
// only when the reactor observes the stop, not here.
func (s *Spooler) Pause(id int) error {
	j, err := s.Job(id)
	if err != nil {
		return err
	}
	if j.Status != JobRunning {
		return fmt.Errorf("pause job %d (%s): %w", id, j.Status, ErrBadJobState)
	}
	return s.signal(j.PGID, syscall.SIGSTOP)
}

// Resume continues a paused job's process group. The status flips back to
// running only when the reactor observes the continue.
func (s *Spooler) Resume(id int) error {
	j, err := s.Job(id)
	if err != nil {
		return err
	}
	if j.Status != JobPaused {
		return fmt.Errorf("resume job %d (%s): %w", id, j.Status, ErrBadJobState)
	}
	return s.signal(j.PGID, syscall.SIGCONT)
}

// Sweep removes terminal jobs whose grace period has elapsed and compacts
// the store. Surviving jobs are renumbered to their new index, so ids are
// dense at all times; job_deleted is emitted with the id the job had when
// it was last visible.
func (s *Spooler) Sweep() {
	now := s.now()
	kept := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Status.Terminal() && now.Sub(j.StatusChangedAt) >= s.retention {
			s.sink.JobDeleted(j.ID)
			s.log.Info("job expired", zap.Int("job", j.ID))
			j.Status = JobDeleted
			continue
		}
		kept = append(kept, j)
	}
	if len(kept) == len(s.jobs) {
		return
	}
	for i, j := range kept {
		j.ID = i
	}
	s.jobs = kept
}

// Shutdown cancels every active job so no process group outlives the
// spooler.
func (s *Spooler) Shutdown() {
	for _, j := range s.jobs {
		if j.Status == JobRunning || j.Status == JobPaused {
			if err := s.Cancel(j.ID); err != nil {
				s.log.Warn("shutdown cancel failed", zap.Int("job", j.ID), zap.Error(err))
			}
		}
	}
}

// transition moves a job to st, stamps the change and emits job_status.
func (s *Spooler) transition(j *Job, st JobStatus) {
	j.Status = st
	j.StatusChangedAt = s.now()
	s.sink.JobStatus(j.ID, st)
}

// releasePrinter returns a printer to idle after its job left the active
// states, emitting printer_status exactly once.
func (s *Spooler) releasePrinter(p *printer.Printer) {
	if p != nil && p.Status == printer.StatusBusy {
		p.Status = printer.StatusIdle
		s.sink.PrinterStatus(p.Name, printer.StatusIdle)
	}
}
