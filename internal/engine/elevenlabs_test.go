package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jhromadka/dicto/internal/config"
	"github.com/stretchr/testify/require"
)

func elevenLabsForTest(t *testing.T, serverURL string) *ElevenLabs {
	t.Helper()
	t.Setenv("DICTO_TEST_API_KEY", "test-key")
	return NewElevenLabs(config.ElevenLabsConfig{
		BaseURL:   serverURL,
		APIKeyEnv: "DICTO_TEST_API_KEY",
		ModelID:   "scribe_v1",
		Timeout:   2 * time.Second,
	})
}

func TestElevenLabsTranscribeSuccess(t *testing.T) {
	var gotModel, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/speech-to-text", r.URL.Path)
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model_id")
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"text":          " hello world ",
			"language_code": "en",
		})
	}))
	defer server.Close()

	e := elevenLabsForTest(t, server.URL)
	result, err := e.Transcribe(context.Background(), make([]byte, 3200), "")
	require.NoError(t, err)
	require.Equal(t, "hello world", result.Text)
	require.Equal(t, "en", result.Language)
	require.Equal(t, "scribe_v1", gotModel)
	require.Equal(t, "test-key", gotKey)
}

func TestElevenLabsStatusCodeMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAuthInvalid},
		{http.StatusForbidden, KindAuthInvalid},
		{http.StatusInternalServerError, KindNetworkUnreachable},
		{http.StatusBadRequest, KindMalformedResponse},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))

		e := elevenLabsForTest(t, server.URL)
		_, err := e.Transcribe(context.Background(), make([]byte, 320), "en")
		require.Error(t, err, "status %d", tc.status)
		require.Equal(t, tc.kind, KindOf(err), "status %d", tc.status)
		server.Close()
	}
}

func TestElevenLabsMissingKey(t *testing.T) {
	t.Setenv("DICTO_TEST_API_KEY", "")
	e := NewElevenLabs(config.ElevenLabsConfig{
		BaseURL:   "http://127.0.0.1:1",
		APIKeyEnv: "DICTO_TEST_API_KEY",
		ModelID:   "scribe_v1",
		Timeout:   time.Second,
	})

	err := e.Probe(context.Background())
	require.Equal(t, KindAuthMissing, KindOf(err))

	_, err = e.Transcribe(context.Background(), make([]byte, 320), "")
	require.Equal(t, KindAuthMissing, KindOf(err))
}

func TestElevenLabsProbeTreatsAuthRejectionAsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	e := elevenLabsForTest(t, server.URL)
	require.NoError(t, e.Probe(context.Background()))
}

func TestElevenLabsTransportErrorIsNetworkUnreachable(t *testing.T) {
	e := elevenLabsForTest(t, "http://127.0.0.1:1")
	_, err := e.Transcribe(context.Background(), make([]byte, 320), "")
	require.Equal(t, KindNetworkUnreachable, KindOf(err))
}
