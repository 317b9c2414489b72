package spool

import (
	"go.uber.org/zap"

	"spoold/internal/pipeline"
)

// HandleEvent reconciles job and printer state with one child-state
// observation. The shell feeds it every event the pipeline monitors
// produce, before handling the next command line.
//
// Events are matched to the active job owning the reported process group.
// A group with no active job is one whose job was already cancelled (or
// swept); its terminal event needs no bookkeeping beyond the reaping the
// monitor already did, so it is dropped. That makes Cancel's immediate
// abort idempotent against the later observed death of the supervisor
// group.
func (s *Spooler) HandleEvent(ev pipeline.Event) {
	j := s.jobByPGID(ev.PGID)
	if j == nil {
		s.log.Debug("event for inactive group", zap.Int("pgid", ev.PGID), zap.Stringer("kind", ev.Kind))
		return
	}

	switch ev.Kind {
	case pipeline.EventStopped:
		// Stages stop one by one; only the first observation flips the job.
		if j.Status == JobRunning {
			s.transition(j, JobPaused)
		}

	case pipeline.EventContinued:
		if j.Status == JobPaused {
			s.transition(j, JobRunning)
		}

	case pipeline.EventExited:
		p := j.Printer
		j.PGID = 0
		s.transition(j, JobFinished)
		s.sink.JobFinished(j.ID, ev.Code)
		s.releasePrinter(p)
		s.TrySchedule()

	case pipeline.EventSignaled:
		p := j.Printer
		j.PGID = 0
		s.transition(j, JobAborted)
		s.sink.JobAborted(j.ID, int(ev.Signal))
		s.releasePrinter(p)
		s.TrySchedule()
	}
}

// jobByPGID finds the active job whose pipeline owns pgid.
func (s *Spooler) jobByPGID(pgid int) *Job {
	for _, j := range s.jobs {
		if j.PGID == pgid && (j.Status == JobRunning || j.Status == JobPaused) {
			return j
		}
	}
	return nil
}
