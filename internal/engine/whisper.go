package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jhromadka/dicto/internal/audio"
	"github.com/jhromadka/dicto/internal/config"
	"github.com/jhromadka/dicto/internal/textproc"
)

// Whisper transcribes phrase chunks through a local whisper CLI subprocess.
//
// The subprocess receives a temp WAV file and prints JSON {"text": ...} on
// stdout. The model stays loaded only for the lifetime of each call; a
// long-lived daemon in front of the same CLI is transparent to this binding.
type Whisper struct {
	argv    []string
	model   string
	timeout time.Duration
}

// NewWhisper builds the local binding from config.
func NewWhisper(cfg config.WhisperConfig) *Whisper {
	return &Whisper{
		argv:    append([]string(nil), cfg.Command.Argv...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (w *Whisper) Name() string {
	return "whisper"
}

// Probe checks that the configured CLI exists in PATH.
func (w *Whisper) Probe(_ context.Context) error {
	if len(w.argv) == 0 {
		return newError(w.Name(), KindAuthMissing, errors.New("whisper command is not configured"))
	}
	if _, err := exec.LookPath(w.argv[0]); err != nil {
		return newError(w.Name(), KindNetworkUnreachable, fmt.Errorf("whisper binary unavailable: %w", err))
	}
	return nil
}

// Transcribe writes the chunk to a temp WAV and runs the CLI on it.
func (w *Whisper) Transcribe(ctx context.Context, pcm []byte, language string) (Transcription, error) {
	if err := w.Probe(ctx); err != nil {
		return Transcription{}, err
	}

	file, err := os.CreateTemp("", "dicto_chunk_*.wav")
	if err != nil {
		return Transcription{}, newError(w.Name(), KindMalformedResponse, fmt.Errorf("temp file: %w", err))
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := audio.WritePCMWav(file, pcm); err != nil {
		return Transcription{}, newError(w.Name(), KindMalformedResponse, err)
	}
	if err := file.Sync(); err != nil {
		return Transcription{}, newError(w.Name(), KindMalformedResponse, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	args := append([]string(nil), w.argv[1:]...)
	args = append(args, "--audio", file.Name())
	if w.model != "" {
		args = append(args, "--model", w.model)
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(runCtx, w.argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return Transcription{}, newError(w.Name(), KindTimeout, runCtx.Err())
		}
		return Transcription{}, newError(w.Name(), KindNetworkUnreachable,
			fmt.Errorf("whisper command failed: %w: %s", err, strings.TrimSpace(stderr.String())))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		return Transcription{}, newError(w.Name(), KindMalformedResponse, fmt.Errorf("decode whisper output: %w", err))
	}

	lang := language
	if lang == "" {
		lang = "en"
	}
	// Local models pad transcripts with leading whitespace and sometimes
	// double spaces between words; collapse both before the text enters
	// the injection pipeline.
	return Transcription{Text: textproc.Normalize(decoded.Text), Language: lang}, nil
}
