// Package langstate persists the user's language mode between invocations.
package langstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode is a supported transcription language mode.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeEnglish Mode = "en"
	ModeCzech   Mode = "cs"
)

var names = map[Mode]string{
	ModeAuto:    "Auto-detect",
	ModeEnglish: "English",
	ModeCzech:   "Czech",
}

// Modes returns the supported modes in display order.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeEnglish, ModeCzech}
}

// Name returns the human-readable name of a mode.
func Name(mode Mode) string {
	if name, ok := names[mode]; ok {
		return name
	}
	return string(mode)
}

// ParseMode validates a user-supplied language code.
func ParseMode(code string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := names[mode]; !ok {
		return "", fmt.Errorf("unsupported language %q (supported: auto, en, cs)", code)
	}
	return mode, nil
}

// Code returns the engine-facing language code; empty means auto-detect.
func (m Mode) Code() string {
	if m == ModeAuto {
		return ""
	}
	return string(m)
}

// StatePath resolves the persisted language mode location.
func StatePath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "dicto", "lang"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home for language state: %w", err)
	}
	return filepath.Join(home, ".local", "state", "dicto", "lang"), nil
}

// Load reads the persisted mode, defaulting to auto when absent or invalid.
//
// Auto-detection stays the default even on localized systems: mixed
// language dictation works better when the engine picks per phrase.
func Load() Mode {
	path, err := StatePath()
	if err != nil {
		return ModeAuto
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ModeAuto
	}
	mode, err := ParseMode(string(content))
	if err != nil {
		return ModeAuto
	}
	return mode
}

// Save persists the mode for future invocations.
func Save(mode Mode) error {
	if _, ok := names[mode]; !ok {
		return errors.New("refusing to persist unknown language mode")
	}
	path, err := StatePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure language state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(string(mode)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write language state: %w", err)
	}
	return nil
}
