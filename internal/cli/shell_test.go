package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spoold/internal/config"
	"spoold/internal/output"
	"spoold/internal/pipeline"
	"spoold/internal/printer"
	"spoold/internal/registry"
	"spoold/internal/spool"
)

// newTestApp assembles an App around a real pipeline engine, a recording
// event sink and a captured output buffer.
func newTestApp(t *testing.T, in io.Reader, mutate func(*config.Config)) (*App, *spool.Recorder, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Spool.Dir = filepath.Join(t.TempDir(), "spool")
	if mutate != nil {
		mutate(cfg)
	}

	log := zap.NewNop()
	types := registry.New(log)
	printers := printer.NewRegistry(log, cfg.Spool.MaxPrinters)
	engine := pipeline.NewEngine(log)
	rec := &spool.Recorder{}

	spooler := spool.New(spool.Options{
		Log:         log,
		Sink:        rec,
		Types:       types,
		Printers:    printers,
		Connector:   printer.NewSpoolDirConnector(log, cfg.Spool.Dir),
		Launcher:    engine,
		Passthrough: cfg.Spool.Passthrough,
		Retention:   cfg.Spool.Retention,
		MaxJobs:     cfg.Spool.MaxJobs,
	})

	buf := &bytes.Buffer{}
	return &App{
		Config:  cfg,
		Log:     log,
		Spooler: spooler,
		Events:  engine.Events(),
		Sink:    rec,
		Out:     output.NewPrinterWithWriter(buf, cfg.Output.TruncateLength),
		In:      in,
	}, rec, buf
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// interactiveShell runs the shell against a pipe so the test can feed
// commands while pipelines complete in the background.
type interactiveShell struct {
	t    *testing.T
	w    *io.PipeWriter
	done chan int
}

func startShell(t *testing.T, app *App) *interactiveShell {
	t.Helper()
	done := make(chan int, 1)
	go func() {
		done <- NewShell(app).Run(context.Background())
	}()
	return &interactiveShell{t: t, done: done}
}

func (s *interactiveShell) send(line string) {
	s.t.Helper()
	_, err := io.WriteString(s.w, line+"\n")
	require.NoError(s.t, err)
}

func (s *interactiveShell) quit() int {
	s.t.Helper()
	s.send("quit")
	select {
	case code := <-s.done:
		return code
	case <-time.After(10 * time.Second):
		s.t.Fatal("shell did not exit")
		return -1
	}
}

func newInteractive(t *testing.T, mutate func(*config.Config)) (*interactiveShell, *spool.Recorder, *App) {
	t.Helper()
	pr, pw := io.Pipe()
	app, rec, _ := newTestApp(t, pr, mutate)
	sh := startShell(t, app)
	sh.w = pw
	return sh, rec, app
}

func eventually(t *testing.T, rec *spool.Recorder, entry string) {
	t.Helper()
	require.Eventually(t, func() bool { return rec.Has(entry) },
		10*time.Second, 20*time.Millisecond, "waiting for event %q", entry)
}

func TestShell_DeclareAndList(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"type pdf",
		"printer alice pdf",
		"enable alice",
		"",
		"printers",
		"bogus",
		"quit",
	}, "\n") + "\n")

	app, rec, buf := newTestApp(t, in, nil)
	code := NewShell(app).Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "PRINTER: id=0, name=alice, type=pdf, status=idle")
	assert.True(t, rec.Has("printer_defined alice pdf"))
	assert.True(t, rec.Has("printer_status alice idle"))
	assert.True(t, rec.Has(`cmd_error unknown command "bogus"`))
	assert.Equal(t, 5, rec.Count("cmd_ok"), "blank lines emit nothing")
}

func TestShell_ArgumentValidation(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"type",                // missing name
		"conversion pdf ps",   // missing command
		"printer solo",        // missing type
		"enable",              // missing name
		"print",               // missing path
		"print a.pdf p extra", // too many args
		"cancel abc",          // non-numeric id
		"disable lp0",         // reserved
		"quit",
	}, "\n") + "\n")

	app, rec, _ := newTestApp(t, in, nil)
	code := NewShell(app).Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, 8, rec.Count("cmd_error wrong number of arguments")+
		rec.Count(`cmd_error invalid job id "abc"`)+
		rec.Count("cmd_error not implemented"))
	assert.Equal(t, 1, rec.Count("cmd_ok"))
}

func TestShell_EndToEndDirectMatch(t *testing.T) {
	doc := writeDoc(t, "doc.pdf", "pretend this is a pdf\n")

	sh, rec, app := newInteractive(t, nil)
	sh.send("type pdf")
	sh.send("printer alice pdf")
	sh.send("enable alice")
	sh.send("print " + doc + " alice")

	eventually(t, rec, "job_finished 0 0")

	assert.True(t, rec.Has("job_created 0 "+doc+" pdf"))
	assert.True(t, rec.Has("job_status 0 running"))
	assert.True(t, rec.Has("job_started 0 alice [cat]"))
	assert.True(t, rec.Has("job_status 0 finished"))
	assert.True(t, rec.Has("printer_status alice busy"))
	require.Eventually(t, func() bool {
		return rec.Count("printer_status alice idle") == 2
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, 0, sh.quit())

	data, err := os.ReadFile(filepath.Join(app.Config.Spool.Dir, "alice.out"))
	require.NoError(t, err)
	assert.Equal(t, "pretend this is a pdf\n", string(data))
}

func TestShell_ConversionPipeline(t *testing.T) {
	doc := writeDoc(t, "doc.low", "shout me\n")

	sh, rec, app := newInteractive(t, nil)
	sh.send("type low")
	sh.send("type up")
	sh.send("conversion low up tr a-z A-Z")
	sh.send("printer bob up")
	sh.send("enable bob")
	sh.send("print " + doc)

	eventually(t, rec, "job_finished 0 0")
	assert.True(t, rec.Has("job_started 0 bob [tr]"),
		"auto-selected printer runs the single conversion stage")

	assert.Equal(t, 0, sh.quit())

	data, err := os.ReadFile(filepath.Join(app.Config.Spool.Dir, "bob.out"))
	require.NoError(t, err)
	assert.Equal(t, "SHOUT ME\n", string(data))
}

func TestShell_PauseResumeCancel(t *testing.T) {
	doc := writeDoc(t, "doc.raw", "")

	sh, rec, _ := newInteractive(t, func(cfg *config.Config) {
		// Make the passthrough stage long-running so job control has a
		// target.
		cfg.Spool.Passthrough = []string{"sleep", "30"}
	})
	sh.send("type raw")
	sh.send("printer lp raw")
	sh.send("enable lp")
	sh.send("print " + doc)
	eventually(t, rec, "job_status 0 running")

	sh.send("pause 0")
	eventually(t, rec, "job_status 0 paused")

	sh.send("resume 0")
	require.Eventually(t, func() bool {
		return rec.Count("job_status 0 running") == 2
	}, 10*time.Second, 20*time.Millisecond)

	sh.send("cancel 0")
	eventually(t, rec, "job_aborted 0 15")
	eventually(t, rec, "job_status 0 aborted")
	require.Eventually(t, func() bool {
		return rec.Count("printer_status lp idle") == 2
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, 0, sh.quit())
	assert.Equal(t, 1, rec.Count("job_status 0 aborted"),
		"the observed group death after cancel must not re-emit")
}

func TestShell_JobWaitsForCompatiblePrinter(t *testing.T) {
	doc := writeDoc(t, "doc.pdf", "queued\n")

	sh, rec, app := newInteractive(t, nil)
	sh.send("type pdf")
	sh.send("print " + doc)
	eventually(t, rec, "job_status 0 created")

	// No compatible printer yet: the job must sit in created state.
	sh.send("jobs")
	assert.False(t, rec.Has("job_status 0 running"))

	sh.send("printer d pdf")
	sh.send("enable d")
	eventually(t, rec, "job_finished 0 0")

	assert.Equal(t, 0, sh.quit())

	data, err := os.ReadFile(filepath.Join(app.Config.Spool.Dir, "d.out"))
	require.NoError(t, err)
	assert.Equal(t, "queued\n", string(data))
}

func TestShell_TerminalJobsExpire(t *testing.T) {
	doc := writeDoc(t, "doc.pdf", "short\n")

	sh, rec, _ := newInteractive(t, func(cfg *config.Config) {
		cfg.Spool.Retention = 50 * time.Millisecond
	})
	sh.send("type pdf")
	sh.send("printer alice pdf")
	sh.send("enable alice")
	sh.send("print " + doc + " alice")
	eventually(t, rec, "job_finished 0 0")

	// Sweeps run after each command; within the grace period the job
	// survives.
	sh.send("jobs")
	assert.False(t, rec.Has("job_deleted 0"))

	time.Sleep(120 * time.Millisecond)
	sh.send("jobs")
	eventually(t, rec, "job_deleted 0")

	assert.Equal(t, 0, sh.quit())
}
