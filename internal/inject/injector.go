// Package inject delivers transcribed text into the focused window in
// strict phrase order.
package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/jhromadka/dicto/internal/config"
)

const commandTimeout = 5 * time.Second

// Injector writes one piece of text at the current cursor position.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// New builds the injector named by cfg.Backend.
func New(cfg config.InjectConfig, logger *slog.Logger) (Injector, error) {
	switch cfg.Backend {
	case "type":
		if len(cfg.TypeCmd.Argv) == 0 {
			return nil, errors.New("inject.type_cmd is not configured")
		}
		return &TypeInjector{cmd: cfg.TypeCmd, logger: logger}, nil
	case "clipboard":
		if len(cfg.ClipboardCmd.Argv) == 0 {
			return nil, errors.New("inject.clipboard_cmd is not configured")
		}
		return &ClipboardInjector{copyCmd: cfg.ClipboardCmd, pasteCmd: cfg.PasteCmd, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown inject backend %q", cfg.Backend)
	}
}

// TypeInjector streams text to a typing tool (xdotool) over stdin.
type TypeInjector struct {
	cmd    config.Command
	logger *slog.Logger
}

func (t *TypeInjector) Inject(ctx context.Context, text string) error {
	return runWithInput(ctx, t.cmd.Argv, text)
}

// ClipboardInjector copies text to the clipboard and optionally triggers
// a paste keystroke.
type ClipboardInjector struct {
	copyCmd  config.Command
	pasteCmd config.Command
	logger   *slog.Logger
}

func (c *ClipboardInjector) Inject(ctx context.Context, text string) error {
	if err := runWithInput(ctx, c.copyCmd.Argv, text); err != nil {
		return err
	}
	if len(c.pasteCmd.Argv) == 0 {
		return nil
	}
	return runWithInput(ctx, c.pasteCmd.Argv, "")
}

func runWithInput(ctx context.Context, argv []string, input string) error {
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s failed: %w: %s", argv[0], err, detail)
		}
		return fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return nil
}
