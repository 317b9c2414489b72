package spool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"spoold/internal/printer"
)

// Sink receives every externally observable spooler event. The production
// app wires a [MultiSink] holding a [ZapSink] that mirrors events into the
// structured log; tests wire a [Recorder] directly.
//
// Sinks are invoked from the shell goroutine only, at the exact state
// transitions where each event is specified to fire.
type Sink interface {
	PrinterDefined(name, typeName string)
	PrinterStatus(name string, status printer.Status)
	JobCreated(id int, path, typeName string)
	JobStatus(id int, status JobStatus)
	JobStarted(id int, printerName string, pgid int, stages []string)
	JobFinished(id, code int)
	JobAborted(id, signal int)
	JobDeleted(id int)
	CmdOK()
	CmdError(reason string)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) PrinterDefined(string, string)           {}
func (NopSink) PrinterStatus(string, printer.Status)    {}
func (NopSink) JobCreated(int, string, string)          {}
func (NopSink) JobStatus(int, JobStatus)                {}
func (NopSink) JobStarted(int, string, int, []string)   {}
func (NopSink) JobFinished(int, int)                    {}
func (NopSink) JobAborted(int, int)                     {}
func (NopSink) JobDeleted(int)                          {}
func (NopSink) CmdOK()                                  {}
func (NopSink) CmdError(string)                         {}

// MultiSink fans every event out to each member in order.
type MultiSink []Sink

func (m MultiSink) PrinterDefined(name, typeName string) {
	for _, s := range m {
		s.PrinterDefined(name, typeName)
	}
}

func (m MultiSink) PrinterStatus(name string, status printer.Status) {
	for _, s := range m {
		s.PrinterStatus(name, status)
	}
}

func (m MultiSink) JobCreated(id int, path, typeName string) {
	for _, s := range m {
		s.JobCreated(id, path, typeName)
	}
}

func (m MultiSink) JobStatus(id int, status JobStatus) {
	for _, s := range m {
		s.JobStatus(id, status)
	}
}

func (m MultiSink) JobStarted(id int, printerName string, pgid int, stages []string) {
	for _, s := range m {
		s.JobStarted(id, printerName, pgid, stages)
	}
}

func (m MultiSink) JobFinished(id, code int) {
	for _, s := range m {
		s.JobFinished(id, code)
	}
}

func (m MultiSink) JobAborted(id, signal int) {
	for _, s := range m {
		s.JobAborted(id, signal)
	}
}

func (m MultiSink) JobDeleted(id int) {
	for _, s := range m {
		s.JobDeleted(id)
	}
}

func (m MultiSink) CmdOK() {
	for _, s := range m {
		s.CmdOK()
	}
}

func (m MultiSink) CmdError(reason string) {
	for _, s := range m {
		s.CmdError(reason)
	}
}

// ZapSink mirrors every event into structured logs.
type ZapSink struct {
	Log *zap.Logger
}

func (z ZapSink) PrinterDefined(name, typeName string) {
	z.Log.Info("printer_defined", zap.String("printer", name), zap.String("type", typeName))
}

func (z ZapSink) PrinterStatus(name string, status printer.Status) {
	z.Log.Info("printer_status", zap.String("printer", name), zap.Stringer("status", status))
}

func (z ZapSink) JobCreated(id int, path, typeName string) {
	z.Log.Info("job_created", zap.Int("job", id), zap.String("path", path), zap.String("type", typeName))
}

func (z ZapSink) JobStatus(id int, status JobStatus) {
	z.Log.Info("job_status", zap.Int("job", id), zap.Stringer("status", status))
}

func (z ZapSink) JobStarted(id int, printerName string, pgid int, stages []string) {
	z.Log.Info("job_started",
		zap.Int("job", id),
		zap.String("printer", printerName),
		zap.Int("pgid", pgid),
		zap.Strings("stages", stages))
}

func (z ZapSink) JobFinished(id, code int) {
	z.Log.Info("job_finished", zap.Int("job", id), zap.Int("code", code))
}

func (z ZapSink) JobAborted(id, signal int) {
	z.Log.Info("job_aborted", zap.Int("job", id), zap.Int("signal", signal))
}

func (z ZapSink) JobDeleted(id int) {
	z.Log.Info("job_deleted", zap.Int("job", id))
}

func (z ZapSink) CmdOK() {
	z.Log.Debug("cmd_ok")
}

func (z ZapSink) CmdError(reason string) {
	z.Log.Info("cmd_error", zap.String("reason", reason))
}

// Recorder captures events as formatted lines for test assertions. It is
// safe for concurrent use because shell tests observe it from the test
// goroutine while the shell loop emits.
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *Recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf(format, args...))
}

// Entries returns a copy of everything recorded so far, in order.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Has reports whether an exact entry was recorded.
func (r *Recorder) Has(entry string) bool {
	for _, e := range r.Entries() {
		if e == entry {
			return true
		}
	}
	return false
}

// Count returns how many times an exact entry was recorded.
func (r *Recorder) Count(entry string) int {
	n := 0
	for _, e := range r.Entries() {
		if e == entry {
			n++
		}
	}
	return n
}

func (r *Recorder) PrinterDefined(name, typeName string) {
	r.add("printer_defined %s %s", name, typeName)
}

func (r *Recorder) PrinterStatus(name string, status printer.Status) {
	r.add("printer_status %s %s", name, status)
}

func (r *Recorder) JobCreated(id int, path, typeName string) {
	r.add("job_created %d %s %s", id, path, typeName)
}

func (r *Recorder) JobStatus(id int, status JobStatus) {
	r.add("job_status %d %s", id, status)
}

func (r *Recorder) JobStarted(id int, printerName string, pgid int, stages []string) {
	r.add("job_started %d %s %v", id, printerName, stages)
}

func (r *Recorder) JobFinished(id, code int) {
	r.add("job_finished %d %d", id, code)
}

func (r *Recorder) JobAborted(id, signal int) {
	r.add("job_aborted %d %d", id, signal)
}

func (r *Recorder) JobDeleted(id int) {
	r.add("job_deleted %d", id)
}

func (r *Recorder) CmdOK() {
	r.add("cmd_ok")
}

func (r *Recorder) CmdError(reason string) {
	r.add("cmd_error %s", reason)
}
