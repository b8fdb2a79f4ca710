// Package vad segments a live PCM frame stream into speech phrases using
// voice-activity timing heuristics.
package vad

import (
	"time"

	"github.com/jhromadka/dicto/internal/audio"
)

// Reason identifies why a session ended.
type Reason string

const (
	ReasonLongSilence  Reason = "long_silence"
	ReasonMaxDuration  Reason = "max_duration"
	ReasonExternalStop Reason = "external_stop"
	ReasonError        Reason = "error"
)

// State is the segmenter lifecycle state.
type State string

const (
	// StateIdle means no speech has been heard yet.
	StateIdle State = "idle"
	// StateInPhrase means speech is being accumulated into the open chunk.
	StateInPhrase State = "in_phrase"
	// StateShortSilence means silence is accumulating inside an open session.
	StateShortSilence State = "short_silence"
	// StateEnded is terminal; no further frames are accepted.
	StateEnded State = "ended"
)

// Chunk is a contiguous run of frames judged to be one phrase.
type Chunk struct {
	Seq      int
	PCM      []byte
	Duration time.Duration
}

// End signals session termination.
type End struct {
	Reason Reason
}

// Emission is the outcome of feeding one frame: possibly a completed
// chunk, possibly a session end, possibly both (final flush).
type Emission struct {
	Chunk *Chunk
	End   *End
}

// Config holds segmentation thresholds.
type Config struct {
	SilenceThreshold float64
	ShortPause       time.Duration
	LongPause        time.Duration
	MinPhrase        time.Duration
	MaxDuration      time.Duration
}

// Segmenter is the phrase/session boundary state machine. Not safe for
// concurrent use; it belongs to the single audio-ingestion goroutine.
type Segmenter struct {
	cfg Config

	state         State
	seq           int
	total         time.Duration
	phrase        []byte
	phraseDur     time.Duration
	phraseSpeech  bool
	silenceRun    time.Duration
	boundaryFired bool
}

// NewSegmenter constructs a segmenter in the idle state.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg, state: StateIdle}
}

// State reports the current lifecycle state.
func (s *Segmenter) State() State {
	return s.state
}

// ChunksEmitted reports how many chunks have been assigned sequence numbers.
func (s *Segmenter) ChunksEmitted() int {
	return s.seq
}

// Feed consumes one PCM frame and advances the state machine.
//
// Sequence numbers are assigned here, on the ingestion path, so emission
// order always matches spoken order regardless of what happens downstream.
func (s *Segmenter) Feed(pcm []byte) Emission {
	if s.state == StateEnded || len(pcm) == 0 {
		return Emission{}
	}

	frameDur := time.Duration(len(pcm)/2) * time.Second / audio.SampleRate
	s.total += frameDur
	s.phrase = append(s.phrase, pcm...)
	s.phraseDur += frameDur

	var emission Emission

	if RMS(pcm) > s.cfg.SilenceThreshold {
		s.state = StateInPhrase
		s.phraseSpeech = true
		s.silenceRun = 0
		s.boundaryFired = false
	} else if s.state == StateInPhrase || s.state == StateShortSilence {
		s.state = StateShortSilence
		s.silenceRun += frameDur

		switch {
		case s.silenceRun >= s.cfg.LongPause:
			return s.finish(ReasonLongSilence)
		case !s.boundaryFired && s.silenceRun >= s.cfg.ShortPause && s.phraseDur >= s.cfg.MinPhrase:
			// Short pause with enough accumulated phrase: phrase boundary.
			// The session stays open awaiting the next phrase.
			emission.Chunk = s.closeChunk()
			s.boundaryFired = true
		}
	}

	if s.total >= s.cfg.MaxDuration {
		end := s.finish(ReasonMaxDuration)
		if emission.Chunk == nil {
			emission.Chunk = end.Chunk
		}
		emission.End = end.End
		return emission
	}

	return emission
}

// Finish forces session end, flushing any open speech chunk. Used for
// external stop and capture failure; idempotent once ended.
func (s *Segmenter) Finish(reason Reason) Emission {
	if s.state == StateEnded {
		return Emission{}
	}
	return s.finish(reason)
}

// finish transitions to ENDED, flushing the open chunk when it holds speech.
//
// The min-phrase gate only applies to mid-session boundaries: a trailing
// short utterance is still flushed so nothing spoken is lost. A trailing
// chunk of pure silence is discarded.
func (s *Segmenter) finish(reason Reason) Emission {
	emission := Emission{End: &End{Reason: reason}}
	if s.phraseSpeech && len(s.phrase) > 0 {
		emission.Chunk = s.closeChunk()
	}
	s.state = StateEnded
	s.phrase = nil
	s.phraseDur = 0
	s.phraseSpeech = false
	return emission
}

// closeChunk snapshots the open phrase buffer and assigns the next sequence number.
func (s *Segmenter) closeChunk() *Chunk {
	pcm := make([]byte, len(s.phrase))
	copy(pcm, s.phrase)

	chunk := &Chunk{Seq: s.seq, PCM: pcm, Duration: s.phraseDur}
	s.seq++

	s.phrase = s.phrase[:0]
	s.phraseDur = 0
	s.phraseSpeech = false
	return chunk
}
