package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(freq float64, duration float64, sampleRate int) []int16 {
	n := int(duration * float64(sampleRate))
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		ts := float64(i) / float64(sampleRate)
		samples[i] = int16(16383.0 * math.Sin(2*math.Pi*freq*ts))
	}
	return samples
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sampleRate := 16000
	samples := sineWave(440, 0.25, sampleRate)

	data, err := EncodeWAV(samples, sampleRate)
	require.NoError(t, err)
	assert.Equal(t, 44+len(samples)*2, len(data))
	require.NoError(t, ValidateWAV(data))

	decoded, rate, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, sampleRate, rate)
	assert.Equal(t, samples, decoded)
}

func TestEncodeWAVRejectsEmptyInput(t *testing.T) {
	_, err := EncodeWAV(nil, 16000)
	assert.Error(t, err)

	_, err = EncodeWAV([]int16{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestValidateWAVRejectsGarbage(t *testing.T) {
	assert.Error(t, ValidateWAV([]byte("not a wav")))

	data, err := EncodeWAV(sineWave(440, 0.1, 8000), 8000)
	require.NoError(t, err)
	data[0] = 'X'
	assert.Error(t, ValidateWAV(data))
}

func TestDuration(t *testing.T) {
	sampleRate := 16000
	data, err := EncodeWAV(sineWave(440, 0.5, sampleRate), sampleRate)
	require.NoError(t, err)

	dur, err := Duration(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, dur, 0.001)
}
