// Package doctor runs runtime readiness diagnostics for config, tools,
// audio, and transcription engines.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jhromadka/dicto/internal/audio"
	"github.com/jhromadka/dicto/internal/config"
	"github.com/jhromadka/dicto/internal/engine"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{
			Name:    "config.warning",
			Pass:    true,
			Message: warning.Message,
		})
	}

	switch cfg.Config.Inject.Backend {
	case "type":
		checks = append(checks, checkCommand(cfg.Config.Inject.TypeCmd.Argv, "inject.type_cmd"))
	case "clipboard":
		checks = append(checks, checkCommand(cfg.Config.Inject.ClipboardCmd.Argv, "inject.clipboard_cmd"))
		if len(cfg.Config.Inject.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.Config.Inject.PasteCmd.Argv, "inject.paste_cmd"))
		}
	}

	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("notify-send", "desktop notifications"))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkEngines(cfg.Config)...)

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkEngines probes each configured engine in priority order.
func checkEngines(cfg config.Config) []Check {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	checks := make([]Check, 0, len(cfg.Engines)+1)
	for _, name := range cfg.Engines {
		var adapter engine.Adapter
		switch name {
		case "elevenlabs":
			if os.Getenv(cfg.ElevenLabs.APIKeyEnv) == "" {
				checks = append(checks, Check{
					Name:    "engine.elevenlabs",
					Pass:    false,
					Message: fmt.Sprintf("%s is not set", cfg.ElevenLabs.APIKeyEnv),
				})
				continue
			}
			adapter = engine.NewElevenLabs(cfg.ElevenLabs)
		case "whisper":
			adapter = engine.NewWhisper(cfg.Whisper)
		default:
			continue
		}

		if err := adapter.Probe(ctx); err != nil {
			checks = append(checks, Check{Name: "engine." + name, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: "engine." + name, Pass: true, Message: "probe succeeded"})
	}
	return checks
}
