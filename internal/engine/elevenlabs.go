package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jhromadka/dicto/internal/audio"
	"github.com/jhromadka/dicto/internal/config"
)

// ElevenLabs transcribes phrase chunks through the hosted speech-to-text API.
type ElevenLabs struct {
	baseURL string
	apiKey  string
	modelID string
	timeout time.Duration
	client  *http.Client
}

// NewElevenLabs builds the remote binding, reading the API key from the
// configured environment variable. A missing key is surfaced by Probe,
// not here, so the selector can fall through to the next engine.
func NewElevenLabs(cfg config.ElevenLabsConfig) *ElevenLabs {
	return &ElevenLabs{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(os.Getenv(cfg.APIKeyEnv)),
		modelID: cfg.ModelID,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *ElevenLabs) Name() string {
	return "elevenlabs"
}

// Probe runs a quick connectivity test against the models endpoint.
//
// Auth and rate-limit rejections still prove the API is reachable with a
// configured key, so only missing credentials and transport failures fail
// the probe.
func (e *ElevenLabs) Probe(ctx context.Context) error {
	if e.apiKey == "" {
		return newError(e.Name(), KindAuthMissing, errors.New("API key is not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/models", nil)
	if err != nil {
		return newError(e.Name(), KindNetworkUnreachable, err)
	}
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return e.classifyTransportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusUnprocessableEntity, http.StatusTooManyRequests:
		return nil
	default:
		return newError(e.Name(), KindMalformedResponse, fmt.Errorf("unexpected probe status %d", resp.StatusCode))
	}
}

// Transcribe posts one phrase chunk as multipart WAV and decodes the text.
func (e *ElevenLabs) Transcribe(ctx context.Context, pcm []byte, language string) (Transcription, error) {
	if e.apiKey == "" {
		return Transcription{}, newError(e.Name(), KindAuthMissing, errors.New("API key is not configured"))
	}

	wavBytes, err := audio.EncodeWAV(pcm)
	if err != nil {
		return Transcription{}, newError(e.Name(), KindMalformedResponse, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "phrase.wav")
	if err != nil {
		return Transcription{}, newError(e.Name(), KindMalformedResponse, err)
	}
	if _, err := part.Write(wavBytes); err != nil {
		return Transcription{}, newError(e.Name(), KindMalformedResponse, err)
	}
	_ = writer.WriteField("model_id", e.modelID)
	_ = writer.WriteField("tag_audio_events", "false")
	if language != "" {
		_ = writer.WriteField("language_code", language)
	}
	if err := writer.Close(); err != nil {
		return Transcription{}, newError(e.Name(), KindMalformedResponse, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.baseURL+"/speech-to-text", body)
	if err != nil {
		return Transcription{}, newError(e.Name(), KindNetworkUnreachable, err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return Transcription{}, e.classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var decoded struct {
			Text         string `json:"text"`
			LanguageCode string `json:"language_code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return Transcription{}, newError(e.Name(), KindMalformedResponse, err)
		}
		detected := decoded.LanguageCode
		if detected == "" {
			detected = language
		}
		return Transcription{Text: strings.TrimSpace(decoded.Text), Language: detected}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Transcription{}, newError(e.Name(), KindRateLimited, fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Transcription{}, newError(e.Name(), KindAuthInvalid, fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return Transcription{}, newError(e.Name(), KindNetworkUnreachable, fmt.Errorf("HTTP %d", resp.StatusCode))
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Transcription{}, newError(e.Name(), KindMalformedResponse,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}
}

// classifyTransportError maps client errors onto the taxonomy.
func (e *ElevenLabs) classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(e.Name(), KindTimeout, err)
	}
	var urlTimeout interface{ Timeout() bool }
	if errors.As(err, &urlTimeout) && urlTimeout.Timeout() {
		return newError(e.Name(), KindTimeout, err)
	}
	return newError(e.Name(), KindNetworkUnreachable, err)
}
