package vad

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		SilenceThreshold: 50,
		ShortPause:       1500 * time.Millisecond,
		LongPause:        4 * time.Second,
		MinPhrase:        2 * time.Second,
		MaxDuration:      45 * time.Second,
	}
}

// frame builds one 64ms mono s16 frame of constant amplitude.
func frame(amplitude int16) []byte {
	buf := make([]byte, 2048)
	for i := 0; i < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(amplitude))
	}
	return buf
}

func speechFrame() []byte  { return frame(2000) }
func silenceFrame() []byte { return frame(0) }

// feed pumps copies of pcm through the segmenter for the given span,
// collecting every emission.
func feed(s *Segmenter, pcm []byte, span time.Duration) []Emission {
	frames := int(span / (64 * time.Millisecond))
	var emissions []Emission
	for i := 0; i < frames; i++ {
		emission := s.Feed(pcm)
		if emission.Chunk != nil || emission.End != nil {
			emissions = append(emissions, emission)
		}
	}
	return emissions
}

func TestShortPauseEmitsPhraseBoundary(t *testing.T) {
	s := NewSegmenter(testConfig())

	require.Empty(t, feed(s, speechFrame(), 3*time.Second))
	emissions := feed(s, silenceFrame(), 2*time.Second)

	require.Len(t, emissions, 1)
	chunk := emissions[0].Chunk
	require.NotNil(t, chunk)
	require.Nil(t, emissions[0].End)
	require.Equal(t, 0, chunk.Seq)
	// 3s of speech plus the 1.5s of silence before the boundary fired.
	require.InDelta(t, 4.5, chunk.Duration.Seconds(), 0.1)
	require.Equal(t, StateShortSilence, s.State())
}

func TestTwoPhrasesThenLongSilenceEndsSession(t *testing.T) {
	s := NewSegmenter(testConfig())

	feed(s, speechFrame(), 3*time.Second)
	first := feed(s, silenceFrame(), 2*time.Second)
	require.Len(t, first, 1)
	require.Equal(t, 0, first[0].Chunk.Seq)

	feed(s, speechFrame(), 2*time.Second)
	second := feed(s, silenceFrame(), 5*time.Second)

	// Second phrase boundary at 1.5s of silence, session end at 4s.
	require.Len(t, second, 2)
	require.NotNil(t, second[0].Chunk)
	require.Equal(t, 1, second[0].Chunk.Seq)
	require.Nil(t, second[0].End)
	require.NotNil(t, second[1].End)
	require.Equal(t, ReasonLongSilence, second[1].End.Reason)
	require.Nil(t, second[1].Chunk)

	require.Equal(t, 2, s.ChunksEmitted())
	require.Equal(t, StateEnded, s.State())
}

func TestMaxDurationFlushesOpenChunk(t *testing.T) {
	s := NewSegmenter(testConfig())

	emissions := feed(s, speechFrame(), 46*time.Second)

	require.Len(t, emissions, 1)
	require.NotNil(t, emissions[0].Chunk)
	require.Equal(t, 0, emissions[0].Chunk.Seq)
	require.NotNil(t, emissions[0].End)
	require.Equal(t, ReasonMaxDuration, emissions[0].End.Reason)
}

func TestMinPhraseGateHoldsBoundary(t *testing.T) {
	s := NewSegmenter(testConfig())

	// 0.3s of speech: when the short pause elapses the accumulated phrase
	// is still under the minimum, so the boundary holds until phrase time
	// crosses it. The chunk therefore spans more than the short pause.
	feed(s, speechFrame(), 320*time.Millisecond)
	emissions := feed(s, silenceFrame(), 5*time.Second)

	require.Len(t, emissions, 2)
	chunk := emissions[0].Chunk
	require.NotNil(t, chunk)
	require.Equal(t, 0, chunk.Seq)
	require.GreaterOrEqual(t, chunk.Duration, 2*time.Second)
	require.NotNil(t, emissions[1].End)
	require.Equal(t, ReasonLongSilence, emissions[1].End.Reason)
	require.Nil(t, emissions[1].Chunk)
}

func TestTrailingSilenceChunkDiscarded(t *testing.T) {
	s := NewSegmenter(testConfig())

	feed(s, speechFrame(), 3*time.Second)
	emissions := feed(s, silenceFrame(), 5*time.Second)

	// Boundary chunk at 1.5s; the remaining pure-silence buffer is
	// discarded at session end.
	require.Len(t, emissions, 2)
	require.NotNil(t, emissions[0].Chunk)
	require.NotNil(t, emissions[1].End)
	require.Nil(t, emissions[1].Chunk)
	require.Equal(t, 1, s.ChunksEmitted())
}

func TestIdleSilenceNeverEndsSession(t *testing.T) {
	s := NewSegmenter(testConfig())

	emissions := feed(s, silenceFrame(), 10*time.Second)

	require.Empty(t, emissions)
	require.Equal(t, StateIdle, s.State())
}

func TestExternalStopFlushesSpeech(t *testing.T) {
	s := NewSegmenter(testConfig())

	feed(s, speechFrame(), time.Second)
	emission := s.Finish(ReasonExternalStop)

	require.NotNil(t, emission.Chunk)
	require.Equal(t, 0, emission.Chunk.Seq)
	require.NotNil(t, emission.End)
	require.Equal(t, ReasonExternalStop, emission.End.Reason)

	// Finished segmenters ignore further input.
	require.Equal(t, Emission{}, s.Finish(ReasonExternalStop))
	require.Equal(t, Emission{}, s.Feed(speechFrame()))
}

func TestSequenceNumbersAreContiguous(t *testing.T) {
	s := NewSegmenter(Config{
		SilenceThreshold: 50,
		ShortPause:       500 * time.Millisecond,
		LongPause:        30 * time.Second,
		MinPhrase:        500 * time.Millisecond,
		MaxDuration:      10 * time.Minute,
	})

	var seqs []int
	for phrase := 0; phrase < 5; phrase++ {
		for _, emission := range feed(s, speechFrame(), time.Second) {
			if emission.Chunk != nil {
				seqs = append(seqs, emission.Chunk.Seq)
			}
		}
		for _, emission := range feed(s, silenceFrame(), time.Second) {
			if emission.Chunk != nil {
				seqs = append(seqs, emission.Chunk.Seq)
			}
		}
	}

	require.Len(t, seqs, 5)
	for i, seq := range seqs {
		require.Equal(t, i, seq)
	}
}
