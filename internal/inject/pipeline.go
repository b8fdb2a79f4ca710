package inject

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jhromadka/dicto/internal/textproc"
)

// Result is one finished transcription attempt, keyed by phrase sequence.
// Err marks a slot the engines could not resolve; it still advances the
// cursor so later phrases are never blocked.
type Result struct {
	Seq      int
	Text     string
	Language string
	Engine   string
	Err      error
}

// Pipeline reorders transcription results and injects them strictly by
// sequence number. Results may arrive in any order; text is emitted in
// order, and a failed or empty slot releases the slots behind it.
type Pipeline struct {
	mu       sync.Mutex
	cursor   int
	pending  map[int]Result
	advanced chan struct{}

	injector      Injector
	logger        *slog.Logger
	cleanFillers  bool
	trailingSpace bool
}

// NewPipeline starts the reorder buffer at sequence 0.
func NewPipeline(injector Injector, logger *slog.Logger, cleanFillers, trailingSpace bool) *Pipeline {
	return &Pipeline{
		pending:       make(map[int]Result),
		advanced:      make(chan struct{}),
		injector:      injector,
		logger:        logger,
		cleanFillers:  cleanFillers,
		trailingSpace: trailingSpace,
	}
}

// Offer records one result and injects every contiguous run now ready.
// Injection happens on the calling goroutine; callers racing on Offer
// serialize here, which keeps emitted text ordered.
func (p *Pipeline) Offer(ctx context.Context, result Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result.Seq < p.cursor {
		p.logger.Warn("duplicate result dropped", "seq", result.Seq)
		return
	}
	p.pending[result.Seq] = result

	for {
		next, ok := p.pending[p.cursor]
		if !ok {
			return
		}
		delete(p.pending, p.cursor)
		p.emit(ctx, next)
		p.cursor++
		close(p.advanced)
		p.advanced = make(chan struct{})
	}
}

func (p *Pipeline) emit(ctx context.Context, result Result) {
	if result.Err != nil {
		p.logger.Warn("phrase dropped", "seq", result.Seq, "error", result.Err)
		return
	}

	text := result.Text
	if p.cleanFillers {
		text = textproc.CleanFillers(text)
	}
	if text == "" {
		p.logger.Debug("phrase empty after cleaning", "seq", result.Seq)
		return
	}
	if p.trailingSpace && text[len(text)-1] != ' ' {
		text += " "
	}

	if err := p.injector.Inject(ctx, text); err != nil {
		// Injection failures never fail the session; the text is lost
		// but later phrases still flow.
		p.logger.Error("injection failed", "seq", result.Seq, "error", err)
		return
	}
	p.logger.Info("phrase injected", "seq", result.Seq, "engine", result.Engine, "chars", len(text))
}

// Cursor returns the next sequence number awaiting injection.
func (p *Pipeline) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Drain blocks until every sequence up to and including lastSeq has been
// resolved, or the context is cancelled.
func (p *Pipeline) Drain(ctx context.Context, lastSeq int) error {
	for {
		p.mu.Lock()
		done := p.cursor > lastSeq
		wait := p.advanced
		p.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}
