package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spoold/internal/output"
)

var errWrongArgs = errors.New("wrong number of arguments")

var errNotImplemented = errors.New("not implemented")

const helpText = `# spoold commands

- **help** - show this list
- **quit** - exit the spooler
- **type** NAME - declare a file type
- **conversion** FROM TO CMD [ARGS...] - declare a conversion program
- **printer** NAME TYPE - declare a printer (starts disabled)
- **enable** NAME - enable a printer
- **disable** NAME - reserved
- **printers** - list printers
- **print** PATH [PRINTER] - submit a file for printing
- **jobs** - list jobs
- **cancel** ID - cancel a job
- **pause** ID - pause a running job
- **resume** ID - resume a paused job
`

// Shell is the interactive command loop. It is the single mutator of
// spooler state: every turn it either handles one command line or applies
// one pending child event, so reconciliation never races a command and no
// child event waits behind a blocked prompt.
type Shell struct {
	app *App
	md  *output.MarkdownRenderer
}

// NewShell creates the shell for an assembled [App].
func NewShell(app *App) *Shell {
	mdCfg := app.Config.Output.Markdown
	return &Shell{
		app: app,
		md:  output.NewMarkdownRenderer(mdCfg.Enabled, mdCfg.Style, mdCfg.WordWrap),
	}
}

// Run executes the command loop until quit, EOF or context cancellation,
// returning the process exit code. Quit and EOF both exit cleanly with 0.
func (s *Shell) Run(ctx context.Context) int {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.app.In)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	needPrompt := true
	for {
		if s.app.Interactive && needPrompt {
			s.app.Out.Prompt()
			needPrompt = false
		}

		select {
		case <-ctx.Done():
			s.app.Spooler.Shutdown()
			return 0

		case ev := <-s.app.Events:
			s.app.Spooler.HandleEvent(ev)

		case line, ok := <-lines:
			if !ok {
				s.app.Spooler.Shutdown()
				return 0
			}
			s.drainEvents()
			quit := s.handle(line)
			s.app.Spooler.Sweep()
			needPrompt = true
			if quit {
				s.app.Spooler.Shutdown()
				return 0
			}
		}
	}
}

// drainEvents applies every already-pending child event so a command sees
// fully reconciled state.
func (s *Shell) drainEvents() {
	for {
		select {
		case ev := <-s.app.Events:
			s.app.Spooler.HandleEvent(ev)
		default:
			return
		}
	}
}

// handle dispatches one command line and emits exactly one of cmd_ok or
// cmd_error. Blank lines are ignored and emit nothing.
func (s *Shell) handle(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help":
		if err = wantArgs(args, 0); err == nil {
			s.app.Out.Line(s.md.Render(helpText))
		}

	case "quit":
		if err = wantArgs(args, 0); err == nil {
			quit = true
		}

	case "type":
		if err = wantArgs(args, 1); err == nil {
			err = s.app.Spooler.DefineType(args[0])
		}

	case "conversion":
		if len(args) < 3 {
			err = errWrongArgs
		} else {
			err = s.app.Spooler.DefineConversion(args[0], args[1], args[2:])
		}

	case "printer":
		if err = wantArgs(args, 2); err == nil {
			err = s.app.Spooler.AddPrinter(args[0], args[1])
		}

	case "enable":
		if err = wantArgs(args, 1); err == nil {
			err = s.app.Spooler.EnablePrinter(args[0])
		}

	case "disable":
		err = errNotImplemented

	case "printers":
		if err = wantArgs(args, 0); err == nil {
			for i, p := range s.app.Spooler.Printers() {
				s.app.Out.PrinterLine(i, p)
			}
		}

	case "print":
		switch len(args) {
		case 1:
			_, err = s.app.Spooler.Submit(args[0], "")
		case 2:
			_, err = s.app.Spooler.Submit(args[0], args[1])
		default:
			err = errWrongArgs
		}

	case "jobs":
		if err = wantArgs(args, 0); err == nil {
			for _, j := range s.app.Spooler.Jobs() {
				s.app.Out.JobLine(j)
			}
		}

	case "cancel":
		err = s.withJobID(args, s.app.Spooler.Cancel)

	case "pause":
		err = s.withJobID(args, s.app.Spooler.Pause)

	case "resume":
		err = s.withJobID(args, s.app.Spooler.Resume)

	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		s.app.Sink.CmdError(err.Error())
		s.app.Out.Error(err.Error())
	} else {
		s.app.Sink.CmdOK()
		s.app.Out.OK()
	}
	return quit
}

func (s *Shell) withJobID(args []string, op func(int) error) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[0])
	}
	return op(id)
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return errWrongArgs
	}
	return nil
}
