package spool

import (
	"fmt"
	"time"

	"spoold/internal/printer"
	"spoold/internal/registry"
)

// JobStatus is the job state.
type JobStatus int

const (
	// JobCreated means the job is accepted but waiting for a printer.
	JobCreated JobStatus = iota
	// JobRunning means the job's pipeline is executing.
	JobRunning
	// JobPaused means the pipeline's process group is stopped.
	JobPaused
	// JobFinished means the pipeline exited; the job lingers until swept.
	JobFinished
	// JobAborted means the job was cancelled or its pipeline died; it
	// lingers until swept.
	JobAborted
	// JobDeleted marks a swept job. Deleted jobs are no longer stored.
	JobDeleted
)

// String returns the lowercase status word used in listings and events.
func (s JobStatus) String() string {
	switch s {
	case JobCreated:
		return "created"
	case JobRunning:
		return "running"
	case JobPaused:
		return "paused"
	case JobFinished:
		return "finished"
	case JobAborted:
		return "aborted"
	case JobDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the status is one a job can be swept from.
func (s JobStatus) Terminal() bool {
	return s == JobFinished || s == JobAborted
}

// Job is one print request. The store owns every Job; the Printer field is
// a non-owning reference into the printer registry.
//
// Bookkeeping invariants, maintained by [Spooler]:
//   - PGID is non-zero iff Status is running or paused
//   - Printer is nil while Status is created; it is set when the job starts
//     running and stays set through paused, finished and aborted (a job
//     cancelled while still created is aborted with no printer)
//   - a printer is busy iff some job referencing it is running or paused
type Job struct {
	// ID equals the job's index in the store. Sweeping compacts the store
	// and renumbers surviving jobs, so an ID is stable only between sweeps.
	ID        int
	InputPath string
	Type      *registry.FileType

	Printer *printer.Printer
	Status  JobStatus

	// PGID is the pipeline's process group while the job is active.
	PGID int
	// Stages holds the pipeline's stage program names, for listings.
	Stages []string

	CreatedAt       time.Time
	StatusChangedAt time.Time
}
