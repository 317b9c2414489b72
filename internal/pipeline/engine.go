// Package pipeline builds and supervises conversion pipelines.
//
// A pipeline is a chain of child processes: stage 0 reads the job's input
// file, each later stage reads the previous stage's stdout through an
// anonymous pipe, and the final stage writes to the printer endpoint. All
// stages share one OS process group, so the spooler pauses, resumes and
// cancels a whole pipeline with a single signal to the group.
//
// Key types:
//   - [Engine] - Launches pipelines and owns the event channel
//   - [Pipeline] - A running pipeline's process group and stage names
//   - [Event] - Stop/continue/exit/signal observation for one pipeline
//
// A monitor goroutine per pipeline reaps every stage with wait4 on the
// group (WUNTRACED|WCONTINUED) and translates what it sees into [Event]
// values on a single consumer channel. That channel is the only path by
// which child lifecycle changes reach spooler state.
package pipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Engine launches pipelines. All pipelines started by one Engine report
// into the same event channel.
type Engine struct {
	log    *zap.Logger
	events chan Event
}

// NewEngine creates an Engine. The event buffer absorbs bursts while the
// shell is mid-command; the consumer drains it before every prompt read.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:    log.Named("pipeline"),
		events: make(chan Event, 64),
	}
}

// Events returns the channel carrying child-state notifications for every
// pipeline this engine has launched. It must have a single consumer.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Pipeline describes a running pipeline.
type Pipeline struct {
	// PGID is the process group holding every stage. Signaling -PGID
	// reaches the whole pipeline atomically.
	PGID int
	// Stages holds the stage program names in pipeline order.
	Stages []string
}

// Signal delivers sig to the pipeline's whole process group.
func (p *Pipeline) Signal(sig syscall.Signal) error {
	return Signal(p.PGID, sig)
}

// Signal delivers sig to the process group pgid.
func Signal(pgid int, sig syscall.Signal) error {
	return unix.Kill(-pgid, sig)
}

// Launch starts a pipeline reading inputPath, running one stage per argv,
// and writing the final stage's stdout to sink. It always closes sink (and
// every other descriptor it opens) in the spooler process before
// returning, whatever the outcome.
//
// The sink stage is started first and becomes the process group leader, so
// the pipeline's pgid is its pid. Starting the tail first is what keeps
// group joining race-free without a dedicated supervisor process: the sink
// stage cannot exit before Launch finishes, because the spooler still
// holds the write ends of the upstream pipes, so every later stage finds
// the group alive when it joins.
//
// An error is returned only when nothing was started. If a stage fails to
// start after the group exists, the already-running stages are terminated
// via the group and the monitor reports the pipeline's death through the
// event channel, the same way any mid-flight failure surfaces.
func (e *Engine) Launch(inputPath string, argvs [][]string, sink *os.File) (*Pipeline, error) {
	n := len(argvs)
	if n == 0 {
		sink.Close()
		return nil, fmt.Errorf("launch: no stages")
	}
	for _, argv := range argvs {
		if len(argv) == 0 {
			sink.Close()
			return nil, fmt.Errorf("launch: empty stage argv")
		}
	}

	input, err := os.Open(inputPath)
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("open input: %w", err)
	}

	// One pipe between each adjacent stage pair. reads[i]/writes[i] sit
	// between stage i and stage i+1.
	reads := make([]*os.File, n-1)
	writes := make([]*os.File, n-1)
	closeAll := func() {
		input.Close()
		sink.Close()
		for i := range reads {
			if reads[i] != nil {
				reads[i].Close()
			}
			if writes[i] != nil {
				writes[i].Close()
			}
		}
	}
	for i := 0; i < n-1; i++ {
		if reads[i], writes[i], err = os.Pipe(); err != nil {
			closeAll()
			return nil, fmt.Errorf("pipe: %w", err)
		}
	}

	stdinOf := func(i int) *os.File {
		if i == 0 {
			return input
		}
		return reads[i-1]
	}
	stdoutOf := func(i int) *os.File {
		if i == n-1 {
			return sink
		}
		return writes[i]
	}

	// Tail stage first: it leads the group.
	leader := e.stageCmd(argvs[n-1], stdinOf(n-1), stdoutOf(n-1), 0)
	if err := leader.Start(); err != nil {
		closeAll()
		return nil, fmt.Errorf("start %s: %w", argvs[n-1][0], err)
	}
	pgid := leader.Process.Pid
	// Reaping happens through wait4 on the group, never through the Cmd
	// handles; release them so the runtime's per-process descriptor does
	// not outlive the stage.
	_ = leader.Process.Release()
	started := 1

	var startErr error
	for i := 0; i < n-1; i++ {
		cmd := e.stageCmd(argvs[i], stdinOf(i), stdoutOf(i), pgid)
		if err := cmd.Start(); err != nil {
			startErr = fmt.Errorf("start %s: %w", argvs[i][0], err)
			break
		}
		_ = cmd.Process.Release()
		started++
	}

	names := make([]string, n)
	for i, argv := range argvs {
		names[i] = filepath.Base(argv[0])
	}
	pl := &Pipeline{PGID: pgid, Stages: names}

	if startErr != nil {
		// Terminate the partial group before releasing the parent's pipe
		// ends, so the started stages die by signal instead of draining a
		// truncated pipeline to a clean exit.
		e.log.Warn("stage failed to start, terminating pipeline",
			zap.Int("pgid", pgid),
			zap.Int("started", started),
			zap.Error(startErr))
		_ = pl.Signal(syscall.SIGTERM)
	}

	// The spooler keeps no pipeline descriptor past this point.
	closeAll()

	if startErr == nil {
		e.log.Info("pipeline started",
			zap.Int("pgid", pgid),
			zap.Strings("stages", names),
			zap.String("input", inputPath))
	}

	go e.monitor(pgid, started)
	return pl, nil
}

// stageCmd builds the exec.Cmd for one stage. Every stage joins the
// pipeline's process group before exec: the leader passes pgid 0 and forms
// its own group, later stages pass the leader's pgid. Descriptors beyond
// stdin/stdout/stderr are not inherited (os/exec opens pipes close-on-exec),
// which is what keeps the hygiene invariants: the input file lives only in
// stage 0, the printer endpoint only in the tail stage, and each
// intermediate pipe end only in the two stages it connects.
func (e *Engine) stageCmd(argv []string, stdin, stdout *os.File, pgid int) *exec.Cmd {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}
	return cmd
}

// monitor plays the supervisor role for one pipeline: it reaps all stages
// of the group and forwards stop/continue observations as they happen.
// When the last stage is gone it emits exactly one terminal event: exited
// with code 0 iff every stage exited 0 (else 1), or signaled if any stage
// was killed by a signal.
func (e *Engine) monitor(pgid, stages int) {
	log := e.log.With(zap.Int("pgid", pgid))
	remaining := stages
	code := 0
	signaled := false
	var sig syscall.Signal

	for remaining > 0 {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-pgid, &ws, unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// ECHILD: every stage has already been reaped.
			log.Warn("wait4 ended early", zap.Int("remaining", remaining), zap.Error(err))
			break
		}

		switch {
		case ws.Stopped():
			log.Debug("stage stopped", zap.Int("pid", pid))
			e.events <- Event{PGID: pgid, Kind: EventStopped}
		case ws.Continued():
			log.Debug("stage continued", zap.Int("pid", pid))
			e.events <- Event{PGID: pgid, Kind: EventContinued}
		case ws.Signaled():
			remaining--
			signaled = true
			sig = ws.Signal()
			log.Debug("stage killed by signal",
				zap.Int("pid", pid), zap.String("signal", sig.String()))
		case ws.Exited():
			remaining--
			if ws.ExitStatus() != 0 {
				code = 1
			}
			log.Debug("stage exited",
				zap.Int("pid", pid), zap.Int("code", ws.ExitStatus()))
		}
	}

	if signaled {
		log.Info("pipeline terminated by signal", zap.String("signal", sig.String()))
		e.events <- Event{PGID: pgid, Kind: EventSignaled, Signal: sig}
		return
	}
	log.Info("pipeline finished", zap.Int("code", code))
	e.events <- Event{PGID: pgid, Kind: EventExited, Code: code}
}
