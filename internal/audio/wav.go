package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WritePCMWav encodes raw little-endian s16 PCM as a mono 16kHz WAV stream.
func WritePCMWav(ws io.WriteSeeker, pcm []byte) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not sample aligned")
	}

	encoder := wav.NewEncoder(ws, SampleRate, 16, 1, 1)
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:   samples,
	}
	if err := encoder.Write(buffer); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// EncodeWAV renders PCM to WAV bytes for request payloads.
func EncodeWAV(pcm []byte) ([]byte, error) {
	buf := &seekBuffer{}
	if err := WritePCMWav(buf, pcm); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// seekBuffer is the minimal in-memory io.WriteSeeker the wav encoder needs
// to backfill chunk sizes in the header.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if b.pos+len(p) > len(b.data) {
		grown := make([]byte, b.pos+len(p))
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, fmt.Errorf("unsupported whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	b.pos = next
	return int64(next), nil
}
