// Package app wires the CLI surface to sessions, IPC forwarding, and
// diagnostics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jhromadka/dicto/internal/audio"
	"github.com/jhromadka/dicto/internal/cli"
	"github.com/jhromadka/dicto/internal/config"
	"github.com/jhromadka/dicto/internal/doctor"
	"github.com/jhromadka/dicto/internal/engine"
	"github.com/jhromadka/dicto/internal/inject"
	"github.com/jhromadka/dicto/internal/ipc"
	"github.com/jhromadka/dicto/internal/langstate"
	"github.com/jhromadka/dicto/internal/lock"
	"github.com/jhromadka/dicto/internal/logging"
	"github.com/jhromadka/dicto/internal/notify"
	"github.com/jhromadka/dicto/internal/session"
	"github.com/jhromadka/dicto/internal/version"
)

// Exit codes returned by Execute.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitUsage          = 2
	ExitNoSession      = 3
	ExitLockContention = 4
	ExitNoEngine       = 5
)

const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("dicto"))
		return ExitUsage
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("dicto"))
		return ExitOK
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return ExitOK
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return ExitError
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return ExitError
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return ExitOK
		}
		return ExitError
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	case cli.CommandStop:
		return r.commandStop(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx, cfgLoaded.Config)
	case cli.CommandPing:
		return r.commandPing(ctx, cfgLoaded.Config, logger)
	case cli.CommandLang:
		return r.commandLang(parsed.LangArg)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return ExitUsage
	}
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	sessionLock, err := lock.Acquire(lock.DefaultPath(), logger)
	if err != nil {
		if errors.Is(err, lock.ErrAlreadyActive) {
			fmt.Fprintln(r.Stderr, "error: another dicto session is already running")
			newNotifier(cfg, logger).Notify(ctx, "Dictation already running", notify.UrgencyNormal)
			return ExitLockContention
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	defer func() { _ = sessionLock.Release() }()

	notifier := newNotifier(cfg, logger)

	adapters, err := buildAdapters(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}

	selector := engine.NewSelector(adapters, logger, notifier)
	if err := selector.SelectInitial(ctx); err != nil {
		fmt.Fprintln(r.Stderr, "error: no transcription engine available")
		notifier.Notify(ctx, "Dictation unavailable: no engine reachable", notify.UrgencyCritical)
		return ExitNoEngine
	}

	injector, err := inject.New(cfg.Inject, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	pipeline := inject.NewPipeline(injector, logger, cfg.Inject.CleanFillers, cfg.Inject.TrailingSpace)

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	if selection.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	defer capture.Close()

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	listener, err := ipc.Listen(ctx, socketPath, forwardTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	lang := langstate.Load()
	controller := session.NewController(cfg, lang, selector, pipeline, logger)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	notifier.Notify(ctx, fmt.Sprintf("Dictation started (%s, %s)", selector.Active(), langstate.Name(lang)), notify.UrgencyLow)

	summary, err := controller.Run(ctx, capture)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return ExitError
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}

	notifier.Notify(ctx, "Dictation ended", notify.UrgencyLow)
	fmt.Fprintf(r.Stdout, "session ended (%s): %d phrases in %s\n",
		summary.Reason, summary.Phrases, summary.Duration.Round(time.Second))
	return ExitOK
}

func (r Runner) commandStop(ctx context.Context) int {
	resp, handled, err := r.tryForward(ctx, "stop")
	if !handled {
		fmt.Fprintln(r.Stdout, "nothing to stop")
		return ExitNoSession
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return ExitOK
}

func (r Runner) commandStatus(ctx context.Context, cfg config.Config) int {
	resp, handled, err := r.tryForward(ctx, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(r.Stdout, "session: %s (engine=%s lang=%s)\n", resp.State, resp.Engine, resp.Lang)
		return ExitOK
	}

	fmt.Fprintln(r.Stdout, "no active session")
	adapters, err := buildAdapters(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}

	healthy := 0
	for _, adapter := range adapters {
		if probeErr := adapter.Probe(ctx); probeErr != nil {
			fmt.Fprintf(r.Stdout, "engine %s: unavailable (%v)\n", adapter.Name(), probeErr)
			continue
		}
		fmt.Fprintf(r.Stdout, "engine %s: ok\n", adapter.Name())
		healthy++
	}
	if healthy == 0 {
		return ExitNoEngine
	}
	return ExitOK
}

func (r Runner) commandPing(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	resp, handled, err := r.tryForward(ctx, "ping")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.Message, resp.State)
		return ExitOK
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	for _, adapter := range adapters {
		if probeErr := adapter.Probe(ctx); probeErr != nil {
			logger.Warn("engine probe failed", "engine", adapter.Name(), "error", probeErr)
			continue
		}
		fmt.Fprintf(r.Stdout, "ok: %s\n", adapter.Name())
		return ExitOK
	}
	fmt.Fprintln(r.Stderr, "error: no transcription engine available")
	return ExitNoEngine
}

func (r Runner) commandLang(arg string) int {
	if arg == "" {
		current := langstate.Load()
		for _, mode := range langstate.Modes() {
			marker := " "
			if mode == current {
				marker = "*"
			}
			fmt.Fprintf(r.Stdout, "%s %-4s %s\n", marker, mode, langstate.Name(mode))
		}
		return ExitOK
	}

	mode, err := langstate.ParseMode(arg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	if err := langstate.Save(mode); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(r.Stdout, "language mode set to %s\n", langstate.Name(mode))
	return ExitOK
}

func (r Runner) tryForward(ctx context.Context, command string) (ipc.Response, bool, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, false, nil
	}

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func newNotifier(cfg config.Config, logger *slog.Logger) notify.Notifier {
	if !cfg.Notify.Enable {
		return notify.Noop{}
	}
	return notify.Desktop{AppName: cfg.Notify.AppName, Logger: logger}
}

func buildAdapters(cfg config.Config) ([]engine.Adapter, error) {
	adapters := make([]engine.Adapter, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		switch name {
		case "elevenlabs":
			adapters = append(adapters, engine.NewElevenLabs(cfg.ElevenLabs))
		case "whisper":
			adapters = append(adapters, engine.NewWhisper(cfg.Whisper))
		default:
			return nil, fmt.Errorf("unknown engine %q", name)
		}
	}
	return adapters, nil
}
