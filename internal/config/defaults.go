package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Engines: []string{"elevenlabs", "whisper"},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		VAD: VADConfig{
			SilenceThreshold: 50,
			ShortPause:       1500 * time.Millisecond,
			LongPause:        4 * time.Second,
			MinPhrase:        2 * time.Second,
		},
		Session: SessionConfig{
			MaxDuration: 45 * time.Second,
			Concurrency: 2,
		},
		ElevenLabs: ElevenLabsConfig{
			BaseURL:   "https://api.elevenlabs.io/v1",
			APIKeyEnv: "ELEVENLABS_API_KEY",
			ModelID:   "scribe_v1",
			Timeout:   8 * time.Second,
		},
		Whisper: WhisperConfig{
			Command: mustParseCommand("whisper-cli"),
			Model:   "tiny.en",
			Timeout: 30 * time.Second,
		},
		Inject: InjectConfig{
			Backend:       "type",
			TypeCmd:       mustParseCommand("xdotool type --delay 0 --file -"),
			ClipboardCmd:  mustParseCommand("wl-copy --trim-newline"),
			CleanFillers:  true,
			TrailingSpace: true,
		},
		Notify: NotifyConfig{
			Enable:  true,
			AppName: "dicto",
		},
	}
}
