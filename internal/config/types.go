// Package config resolves, parses, validates, and defaults dicto configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by dicto.
type Config struct {
	Engines    []string
	Audio      AudioConfig
	VAD        VADConfig
	Session    SessionConfig
	ElevenLabs ElevenLabsConfig
	Whisper    WhisperConfig
	Inject     InjectConfig
	Notify     NotifyConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// VADConfig controls speech/silence classification and phrase boundary timing.
type VADConfig struct {
	SilenceThreshold float64
	ShortPause       time.Duration
	LongPause        time.Duration
	MinPhrase        time.Duration
}

// SessionConfig bounds one dictation session.
type SessionConfig struct {
	MaxDuration time.Duration
	Concurrency int
}

// ElevenLabsConfig controls the remote speech-to-text binding.
type ElevenLabsConfig struct {
	BaseURL   string
	APIKeyEnv string
	ModelID   string
	Timeout   time.Duration
}

// WhisperConfig controls the local subprocess speech-to-text binding.
type WhisperConfig struct {
	Command Command
	Model   string
	Timeout time.Duration
}

// InjectConfig controls how transcribed text reaches the active window.
type InjectConfig struct {
	Backend       string // "type" or "clipboard"
	TypeCmd       Command
	ClipboardCmd  Command
	PasteCmd      Command
	CleanFillers  bool
	TrailingSpace bool
}

// NotifyConfig controls best-effort desktop notifications.
type NotifyConfig struct {
	Enable  bool
	AppName string
}

// Command stores a raw command string and its parsed argv form.
type Command struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
