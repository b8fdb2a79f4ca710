package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 640)
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(i)))
	}

	encoded, err := EncodeWAV(pcm)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(encoded[:4]))
	require.Equal(t, "WAVE", string(encoded[8:12]))

	decoder := wav.NewDecoder(bytes.NewReader(encoded))
	buffer, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	require.Equal(t, SampleRate, buffer.Format.SampleRate)
	require.Equal(t, 1, buffer.Format.NumChannels)
	require.Len(t, buffer.Data, len(pcm)/2)
	require.Equal(t, int(int16(binary.LittleEndian.Uint16(pcm[2:]))), buffer.Data[1])
}

func TestEncodeWAVRejectsUnalignedPayload(t *testing.T) {
	_, err := EncodeWAV(make([]byte, 3))
	require.Error(t, err)
}
