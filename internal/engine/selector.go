package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jhromadka/dicto/internal/notify"
)

// ErrNoEngineAvailable means no configured engine passed its probe.
var ErrNoEngineAvailable = errors.New("no transcription engine available")

const (
	rateLimitAttempts = 2
	rateLimitBackoff  = time.Second
)

// Selector owns the engine priority list for one session. It picks the
// first engine whose probe succeeds and demotes to the next one when a
// call fails, announcing each transition exactly once.
//
// Demotion is sticky: once an engine is abandoned the session never
// returns to it.
type Selector struct {
	mu       sync.Mutex
	adapters []Adapter
	active   int
	logger   *slog.Logger
	notifier notify.Notifier
}

// NewSelector builds a selector over the adapters in priority order.
func NewSelector(adapters []Adapter, logger *slog.Logger, notifier notify.Notifier) *Selector {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Selector{adapters: adapters, active: -1, logger: logger, notifier: notifier}
}

// SelectInitial probes the priority list and activates the first healthy
// engine. Probe failures at startup are logged but not announced; the
// user only cares which engine the session runs on.
func (s *Selector) SelectInitial(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, adapter := range s.adapters {
		if err := adapter.Probe(ctx); err != nil {
			s.logger.Warn("engine probe failed", "engine", adapter.Name(), "error", err)
			continue
		}
		s.active = i
		s.logger.Info("engine selected", "engine", adapter.Name())
		return nil
	}
	return ErrNoEngineAvailable
}

// Active returns the name of the currently active engine.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 || s.active >= len(s.adapters) {
		return ""
	}
	return s.adapters[s.active].Name()
}

// Transcribe runs a chunk on the active engine. Rate limiting retries
// transparently on the same engine; any other failure demotes to the
// next engine and retries the chunk there once. When the list is
// exhausted the last error is returned.
func (s *Selector) Transcribe(ctx context.Context, pcm []byte, language string) (Transcription, error) {
	for {
		adapter, ok := s.current()
		if !ok {
			return Transcription{}, ErrNoEngineAvailable
		}

		result, err := s.transcribeWithRetry(ctx, adapter, pcm, language)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return Transcription{}, err
		}

		s.logger.Warn("engine call failed", "engine", adapter.Name(), "kind", KindOf(err), "error", err)
		if !s.demote(ctx, adapter, err) {
			return Transcription{}, err
		}
	}
}

func (s *Selector) current() (Adapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 || s.active >= len(s.adapters) {
		return nil, false
	}
	return s.adapters[s.active], true
}

func (s *Selector) transcribeWithRetry(ctx context.Context, adapter Adapter, pcm []byte, language string) (Transcription, error) {
	var lastErr error
	for attempt := 0; attempt < rateLimitAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Transcription{}, lastErr
			case <-time.After(rateLimitBackoff):
			}
		}
		result, err := adapter.Transcribe(ctx, pcm, language)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsRateLimited(err) {
			return Transcription{}, err
		}
		s.logger.Warn("engine rate limited", "engine", adapter.Name(), "attempt", attempt+1)
	}
	return Transcription{}, lastErr
}

// demote advances past the failed engine to the next one that probes
// healthy, announcing the transition. Returns false when no engine is
// left. The failed adapter is matched by identity so concurrent callers
// hitting the same failure demote only once.
func (s *Selector) demote(ctx context.Context, failed Adapter, cause error) bool {
	s.mu.Lock()
	if s.active < 0 || s.active >= len(s.adapters) || s.adapters[s.active] != failed {
		// Another caller already moved on.
		ok := s.active >= 0 && s.active < len(s.adapters)
		s.mu.Unlock()
		return ok
	}

	from := failed.Name()
	for i := s.active + 1; i < len(s.adapters); i++ {
		next := s.adapters[i]
		if err := next.Probe(ctx); err != nil {
			s.logger.Warn("engine probe failed", "engine", next.Name(), "error", err)
			continue
		}
		s.active = i
		s.mu.Unlock()
		s.logger.Info("engine fallback", "from", from, "to", next.Name(), "cause", KindOf(cause))
		s.notifier.Notify(ctx, fmt.Sprintf("Switched to %s engine", next.Name()), notify.UrgencyNormal)
		return true
	}

	s.active = len(s.adapters)
	s.mu.Unlock()
	s.logger.Error("all engines exhausted", "last", from)
	s.notifier.Notify(ctx, "Transcription unavailable: all engines failed", notify.UrgencyCritical)
	return false
}
