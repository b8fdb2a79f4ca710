// Package session drives one dictation session from audio capture to
// injected text.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jhromadka/dicto/internal/audio"
	"github.com/jhromadka/dicto/internal/config"
	"github.com/jhromadka/dicto/internal/engine"
	"github.com/jhromadka/dicto/internal/inject"
	"github.com/jhromadka/dicto/internal/ipc"
	"github.com/jhromadka/dicto/internal/langstate"
	"github.com/jhromadka/dicto/internal/vad"
)

// Phase is the session lifecycle state, reported over IPC.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRecording Phase = "recording"
	PhaseDraining  Phase = "draining"
	PhaseEnded     Phase = "ended"
)

// drainTimeout bounds how long session end waits for in-flight
// transcriptions to settle.
const drainTimeout = 15 * time.Second

// FrameSource abstracts the capture stream so tests can script frames.
type FrameSource interface {
	Frames() <-chan []byte
	Stop() error
}

// Summary is what one finished session reports back to the CLI.
type Summary struct {
	Reason   vad.Reason
	Phrases  int
	Duration time.Duration
}

// Controller owns one session: the segmenter, the engine selector, the
// transcription workers, and the ordered injection pipeline.
type Controller struct {
	cfg      config.Config
	lang     langstate.Mode
	selector *engine.Selector
	pipeline *inject.Pipeline
	logger   *slog.Logger

	mu     sync.Mutex
	phase  Phase
	stopCh chan vad.Reason
	once   sync.Once
}

// NewController wires a controller; Run does the work.
func NewController(cfg config.Config, lang langstate.Mode, selector *engine.Selector, pipeline *inject.Pipeline, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:      cfg,
		lang:     lang,
		selector: selector,
		pipeline: pipeline,
		logger:   logger,
		phase:    PhaseIdle,
		stopCh:   make(chan vad.Reason, 1),
	}
}

// Phase reports the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) setPhase(phase Phase) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
}

// Stop requests session end from outside the audio loop. Safe to call
// more than once; only the first reason wins.
func (c *Controller) Stop(reason vad.Reason) {
	c.once.Do(func() {
		c.stopCh <- reason
	})
}

// Handle serves the IPC commands a running session answers.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "ping":
		return ipc.Response{OK: true, State: string(c.Phase()), Message: "pong"}
	case "status":
		return ipc.Response{
			OK:     true,
			State:  string(c.Phase()),
			Engine: c.selector.Active(),
			Lang:   string(c.lang),
		}
	case "stop":
		c.Stop(vad.ReasonExternalStop)
		return ipc.Response{OK: true, State: string(c.Phase()), Message: "stopping"}
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

// Run consumes the frame source until a session-end condition, feeding
// phrase chunks to bounded transcription workers and their results to
// the ordered pipeline. Returns once all resolvable text is injected.
func (c *Controller) Run(ctx context.Context, source FrameSource) (Summary, error) {
	started := time.Now()
	c.setPhase(PhaseRecording)

	segmenter := vad.NewSegmenter(vad.Config{
		SilenceThreshold: c.cfg.VAD.SilenceThreshold,
		ShortPause:       c.cfg.VAD.ShortPause,
		LongPause:        c.cfg.VAD.LongPause,
		MinPhrase:        c.cfg.VAD.MinPhrase,
		MaxDuration:      c.cfg.Session.MaxDuration,
	})

	// callCtx covers in-flight engine calls; external stop cancels it so
	// stop returns promptly instead of waiting out remote timeouts.
	callCtx, cancelCalls := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelCalls()

	chunkCh := make(chan *vad.Chunk, 2*c.cfg.Session.Concurrency)
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		c.dispatch(callCtx, chunkCh)
	}()

	reason := c.consume(ctx, source, segmenter, chunkCh)
	_ = source.Stop()
	close(chunkCh)

	c.setPhase(PhaseDraining)
	if reason == vad.ReasonExternalStop {
		cancelCalls()
	}
	workers.Wait()

	drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancelDrain()
	if err := c.pipeline.Drain(drainCtx, segmenter.ChunksEmitted()-1); err != nil {
		c.logger.Warn("drain timed out", "error", err)
	}

	c.setPhase(PhaseEnded)
	summary := Summary{Reason: reason, Phrases: segmenter.ChunksEmitted(), Duration: time.Since(started)}
	c.logger.Info("session ended", "reason", string(reason), "phrases", summary.Phrases, "duration", summary.Duration.Round(time.Millisecond).String())
	return summary, nil
}

// consume runs the single-goroutine ingestion loop. It returns the
// session end reason after forwarding every emitted chunk.
func (c *Controller) consume(ctx context.Context, source FrameSource, segmenter *vad.Segmenter, chunkCh chan<- *vad.Chunk) vad.Reason {
	frames := source.Frames()
	for {
		var emission vad.Emission
		select {
		case <-ctx.Done():
			emission = segmenter.Finish(vad.ReasonExternalStop)
		case reason := <-c.stopCh:
			emission = segmenter.Finish(reason)
		case frame, ok := <-frames:
			if !ok {
				c.logger.Warn("capture stream closed")
				emission = segmenter.Finish(vad.ReasonError)
			} else {
				emission = segmenter.Feed(frame)
			}
		}

		if emission.Chunk != nil {
			c.logger.Debug("phrase boundary", "seq", emission.Chunk.Seq, "duration", emission.Chunk.Duration.Round(time.Millisecond).String())
			chunkCh <- emission.Chunk
		}
		if emission.End != nil {
			return emission.End.Reason
		}
	}
}

// dispatch fans chunks out to transcription workers, bounded by the
// configured concurrency. Every chunk produces exactly one pipeline
// result, success or not, so the injection cursor always advances.
func (c *Controller) dispatch(ctx context.Context, chunkCh <-chan *vad.Chunk) {
	concurrency := c.cfg.Session.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for chunk := range chunkCh {
		sem <- struct{}{}
		wg.Add(1)
		go func(chunk *vad.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			c.transcribe(ctx, chunk)
		}(chunk)
	}
	wg.Wait()
}

func (c *Controller) transcribe(ctx context.Context, chunk *vad.Chunk) {
	transcription, err := c.selector.Transcribe(ctx, chunk.PCM, c.lang.Code())
	result := inject.Result{
		Seq:      chunk.Seq,
		Text:     transcription.Text,
		Language: transcription.Language,
		Engine:   c.selector.Active(),
		Err:      err,
	}
	c.pipeline.Offer(ctx, result)
}

var _ FrameSource = (*audio.Capture)(nil)
