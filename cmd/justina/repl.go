package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	justina "github.com/Herwig9820/Justina-interpreter-sub002"
	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/fatih/color"
)

// host drives a machine from a console: it runs lines, reports events and
// errors, and loads programs on request.
type host struct {
	m         *vm.Machine
	dev       console.Device
	formatter *errz.Formatter
	prompt    bool
}

func newHost(m *vm.Machine, dev console.Device, useColor, prompt bool) *host {
	return &host{
		m:         m,
		dev:       dev,
		formatter: errz.NewFormatter(useColor),
		prompt:    prompt,
	}
}

func (h *host) printf(format string, args ...any) {
	fmt.Fprintf(h.dev, format, args...)
}

func (h *host) promptText() string {
	if info, ok := h.m.StoppedAt(); ok {
		return yellow(fmt.Sprintf("DEBUG [%s] >> ", info.Function))
	}
	return cyan("Justina> ")
}

// runLine runs one line and reports its outcome. It returns true when the
// session should end.
func (h *host) runLine(ctx context.Context, line string) bool {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, err := h.m.Exec(ctx, line)
	switch errz.CodeOf(err) {
	case errz.OK:
	case errz.EventQuit:
		h.printf("%s", h.formatter.Format(err))
		h.quit(ctx)
		return true
	case errz.EventKill:
		h.printf("%s", h.formatter.Format(err))
		return true
	case errz.EventStopped:
		h.printStop()
	case errz.EventLoadProgram:
		h.load(ctx)
	default:
		h.printf("%s", h.formatter.Format(err))
	}
	return false
}

func (h *host) printStop() {
	info, ok := h.m.StoppedAt()
	if !ok {
		return
	}
	h.printf("%s in %s", yellow("stopped"), info.Function)
	if info.Suspended > 1 {
		h.printf(" (%d programs stopped)", info.Suspended)
	}
	h.printf("\n  next: %s\n", info.Statement)
}

// quit asks whether the machine keeps its programs, stopped programs and
// variables. Any answer but y discards them.
func (h *host) quit(ctx context.Context) {
	h.printf("keep state? (y/n) ")
	answer, err := console.ReadLine(ctx, h.dev, nil)
	if err == nil && strings.EqualFold(strings.TrimSpace(answer), "y") {
		h.printf("state kept\n")
		return
	}
	if err := h.m.Reset(); err != nil {
		h.printf("%s", h.formatter.Format(err))
	}
	h.printf("state discarded\n")
}

func (h *host) load(ctx context.Context) {
	path := h.m.LoadRequest()
	if path == "" {
		h.printf("%s\n", red("load: no file name"))
		return
	}
	if err := justina.LoadFile(ctx, h.m, path); err != nil {
		h.printf("%s", h.formatter.Format(err))
		return
	}
	h.printf("program %q loaded\n", h.m.Program().Name)
}

// run reads lines until end of input or until a line ends the session.
func (h *host) run(ctx context.Context) error {
	for {
		if h.prompt {
			h.printf("%s", h.promptText())
		}
		line, err := console.ReadLine(ctx, h.dev, nil)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if h.runLine(ctx, line) {
			return nil
		}
	}
}

func yellow(s string) string { return color.New(color.FgYellow).Sprint(s) }
func cyan(s string) string   { return color.New(color.FgCyan, color.Bold).Sprint(s) }
func red(s string) string    { return color.New(color.FgRed).Sprint(s) }
