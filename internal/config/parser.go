package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse reads key=value configuration content over a base config.
//
// Lines are `key = value`; `#` starts a comment; values may be quoted;
// list values are comma separated. Unknown keys fail the parse so typos
// surface immediately instead of silently running on defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	warnings := make([]Warning, 0)

	for lineNo, rawLine := range strings.Split(content, "\n") {
		line := rawLine
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, nil, fmt.Errorf("line %d: expected key = value, got %q", lineNo+1, strings.TrimSpace(line))
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if err := applyKey(&cfg, key, value); err != nil {
			return Config{}, nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}

	validateWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validateWarnings...)

	return cfg, warnings, nil
}

// applyKey sets a single configuration key on cfg.
func applyKey(cfg *Config, key string, value string) error {
	switch key {
	case "engines":
		cfg.Engines = splitList(value)
	case "audio.input":
		cfg.Audio.Input = value
	case "audio.fallback":
		cfg.Audio.Fallback = value
	case "vad.silence_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.VAD.SilenceThreshold = f
	case "vad.short_pause_ms":
		return setDurationMS(&cfg.VAD.ShortPause, key, value)
	case "vad.long_pause_ms":
		return setDurationMS(&cfg.VAD.LongPause, key, value)
	case "vad.min_phrase_ms":
		return setDurationMS(&cfg.VAD.MinPhrase, key, value)
	case "session.max_duration_ms":
		return setDurationMS(&cfg.Session.MaxDuration, key, value)
	case "session.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Session.Concurrency = n
	case "elevenlabs.base_url":
		cfg.ElevenLabs.BaseURL = value
	case "elevenlabs.api_key_env":
		cfg.ElevenLabs.APIKeyEnv = value
	case "elevenlabs.model":
		cfg.ElevenLabs.ModelID = value
	case "elevenlabs.timeout_ms":
		return setDurationMS(&cfg.ElevenLabs.Timeout, key, value)
	case "whisper.command":
		cmd, err := ParseCommand(value)
		if err != nil {
			return err
		}
		cfg.Whisper.Command = cmd
	case "whisper.model":
		cfg.Whisper.Model = value
	case "whisper.timeout_ms":
		return setDurationMS(&cfg.Whisper.Timeout, key, value)
	case "inject.backend":
		cfg.Inject.Backend = value
	case "inject.type_cmd":
		return setCommand(&cfg.Inject.TypeCmd, value)
	case "inject.clipboard_cmd":
		return setCommand(&cfg.Inject.ClipboardCmd, value)
	case "inject.paste_cmd":
		return setCommand(&cfg.Inject.PasteCmd, value)
	case "inject.clean_fillers":
		return setBool(&cfg.Inject.CleanFillers, key, value)
	case "inject.trailing_space":
		return setBool(&cfg.Inject.TrailingSpace, key, value)
	case "notify.enable":
		return setBool(&cfg.Notify.Enable, key, value)
	case "notify.app_name":
		cfg.Notify.AppName = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func setDurationMS(target *time.Duration, key string, value string) error {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if ms < 0 {
		return fmt.Errorf("%s must be >= 0", key)
	}
	*target = time.Duration(ms) * time.Millisecond
	return nil
}

func setBool(target *bool, key string, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = b
	return nil
}

func setCommand(target *Command, value string) error {
	cmd, err := ParseCommand(value)
	if err != nil {
		return err
	}
	*target = cmd
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unquote(value string) string {
	if len(value) >= 2 {
		first := value[0]
		last := value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
