package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() SilenceOptions {
	return SilenceOptions{
		Threshold:  0.01,
		MinSilence: 2 * time.Second,
		Window:     100 * time.Millisecond,
	}
}

type part struct {
	dur  float64
	loud bool
}

// buildTrack concatenates alternating loud and silent stretches, in seconds.
func buildTrack(sampleRate int, parts ...part) []int16 {
	var out []int16
	for _, p := range parts {
		n := int(p.dur * float64(sampleRate))
		if p.loud {
			out = append(out, sineWave(440, p.dur, sampleRate)...)
		} else {
			out = append(out, make([]int16, n)...)
		}
	}
	return out
}

func TestDetectKeptIntervalsRemovesLongSilence(t *testing.T) {
	sampleRate := 8000
	// 3s speech, 4s silence, 2s speech
	samples := buildTrack(sampleRate, part{3, true}, part{4, false}, part{2, true})

	kept := DetectKeptIntervals(samples, sampleRate, testOptions())
	require.Len(t, kept, 2)

	assert.InDelta(t, 0.0, kept[0].OrigStart, 0.15)
	assert.InDelta(t, 3.0, kept[0].OrigEnd, 0.15)
	assert.InDelta(t, 0.0, kept[0].CroppedStart, 0.001)

	assert.InDelta(t, 7.0, kept[1].OrigStart, 0.15)
	assert.InDelta(t, 9.0, kept[1].OrigEnd, 0.15)
	// second interval lands right after the first in the cropped file
	assert.InDelta(t, kept[0].OrigEnd-kept[0].OrigStart, kept[1].CroppedStart, 0.15)
}

func TestDetectKeptIntervalsKeepsShortPauses(t *testing.T) {
	sampleRate := 8000
	// 1s pause is below the 2s minimum, so nothing is removed
	samples := buildTrack(sampleRate, part{2, true}, part{1, false}, part{2, true})

	kept := DetectKeptIntervals(samples, sampleRate, testOptions())
	require.Len(t, kept, 1)
	assert.InDelta(t, 0.0, kept[0].OrigStart, 0.001)
	assert.InDelta(t, 5.0, kept[0].OrigEnd, 0.15)
}

func TestDetectKeptIntervalsAllSilent(t *testing.T) {
	sampleRate := 8000
	samples := make([]int16, sampleRate*5)

	kept := DetectKeptIntervals(samples, sampleRate, testOptions())
	assert.Empty(t, kept)
}

func TestCropConcatenatesKeptRanges(t *testing.T) {
	sampleRate := 8000
	samples := buildTrack(sampleRate, part{3, true}, part{4, false}, part{2, true})

	kept := DetectKeptIntervals(samples, sampleRate, testOptions())
	cropped := Crop(samples, sampleRate, kept)

	var keptDur float64
	for _, iv := range kept {
		keptDur += iv.OrigEnd - iv.OrigStart
	}
	assert.InDelta(t, keptDur, float64(len(cropped))/float64(sampleRate), 0.01)
	assert.Less(t, len(cropped), len(samples))
}
