package engine

import (
	"context"
	"sync"
)

// Mock is a scriptable adapter used by tests.
type Mock struct {
	mu sync.Mutex

	AdapterName string
	ProbeErr    error

	// Results is consumed in order; when exhausted, Default is returned.
	Results []MockResult
	Default MockResult

	// Calls records each Transcribe invocation.
	Calls []MockCall
}

type MockResult struct {
	Text string
	Err  error
}

type MockCall struct {
	PCMLen   int
	Language string
}

func (m *Mock) Name() string {
	if m.AdapterName == "" {
		return "mock"
	}
	return m.AdapterName
}

func (m *Mock) Probe(_ context.Context) error {
	return m.ProbeErr
}

func (m *Mock) Transcribe(_ context.Context, pcm []byte, language string) (Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{PCMLen: len(pcm), Language: language})

	result := m.Default
	if len(m.Results) > 0 {
		result = m.Results[0]
		m.Results = m.Results[1:]
	}
	if result.Err != nil {
		return Transcription{}, result.Err
	}
	lang := language
	if lang == "" {
		lang = "en"
	}
	return Transcription{Text: result.Text, Language: lang}, nil
}

// CallCount returns how many Transcribe calls were recorded.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
