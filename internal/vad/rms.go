package vad

import (
	"encoding/binary"
	"math"
)

// RMS computes root-mean-square amplitude over little-endian s16 samples.
func RMS(pcm []byte) float64 {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < sampleCount; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sumSquares += sample * sample
	}
	return math.Sqrt(sumSquares / float64(sampleCount))
}
