package config

import (
	"fmt"
	"strings"
)

var knownEngines = map[string]struct{}{
	"elevenlabs": {},
	"whisper":    {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if len(cfg.Engines) == 0 {
		return nil, fmt.Errorf("engines must list at least one engine")
	}
	seen := map[string]struct{}{}
	for _, name := range cfg.Engines {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := knownEngines[name]; !ok {
			return nil, fmt.Errorf("engines lists unknown engine %q", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("engines lists %q more than once", name)
		}
		seen[name] = struct{}{}
	}

	if cfg.VAD.SilenceThreshold <= 0 {
		return nil, fmt.Errorf("vad.silence_threshold must be > 0")
	}
	if cfg.VAD.ShortPause <= 0 || cfg.VAD.LongPause <= 0 {
		return nil, fmt.Errorf("vad pause thresholds must be > 0")
	}
	if cfg.VAD.ShortPause >= cfg.VAD.LongPause {
		return nil, fmt.Errorf("vad.short_pause_ms must be shorter than vad.long_pause_ms")
	}
	if cfg.VAD.MinPhrase < 0 {
		return nil, fmt.Errorf("vad.min_phrase_ms must be >= 0")
	}
	if cfg.Session.MaxDuration <= cfg.VAD.LongPause {
		return nil, fmt.Errorf("session.max_duration_ms must exceed vad.long_pause_ms")
	}
	if cfg.Session.Concurrency < 1 || cfg.Session.Concurrency > 3 {
		return nil, fmt.Errorf("session.concurrency must be between 1 and 3")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Inject.Backend)) {
	case "type":
		if len(cfg.Inject.TypeCmd.Argv) == 0 {
			return nil, fmt.Errorf("inject.type_cmd must not be empty when inject.backend=type")
		}
	case "clipboard":
		if len(cfg.Inject.ClipboardCmd.Argv) == 0 {
			return nil, fmt.Errorf("inject.clipboard_cmd must not be empty when inject.backend=clipboard")
		}
		if len(cfg.Inject.PasteCmd.Argv) == 0 {
			warnings = append(warnings, Warning{Message: "inject.paste_cmd is unset; text will reach the clipboard but will not be pasted"})
		}
	default:
		return nil, fmt.Errorf("inject.backend must be one of: type, clipboard")
	}

	if strings.TrimSpace(cfg.ElevenLabs.BaseURL) == "" {
		return nil, fmt.Errorf("elevenlabs.base_url must not be empty")
	}
	if strings.TrimSpace(cfg.ElevenLabs.APIKeyEnv) == "" {
		return nil, fmt.Errorf("elevenlabs.api_key_env must not be empty")
	}
	if cfg.ElevenLabs.Timeout <= 0 || cfg.Whisper.Timeout <= 0 {
		return nil, fmt.Errorf("engine timeouts must be > 0")
	}
	if len(cfg.Whisper.Command.Argv) == 0 {
		return nil, fmt.Errorf("whisper.command must not be empty")
	}

	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}

	return warnings, nil
}
