package audio

import (
	"math"
	"time"
)

// Interval is one non-silent slice of the original recording. CroppedStart is
// the slice's cumulative offset in the cropped output.
type Interval struct {
	OrigStart    float64
	OrigEnd      float64
	CroppedStart float64
}

// SilenceOptions tune the energy detector. Threshold is a fraction of full
// scale; windows whose RMS falls below it count as silent, and silent runs
// shorter than MinSilence are kept as natural pauses.
type SilenceOptions struct {
	Threshold  float64
	MinSilence time.Duration
	Window     time.Duration
}

// DetectKeptIntervals scans mono PCM-16 samples and returns the slices to
// keep after removing every silent run of at least MinSilence. A recording
// with no long silences comes back as a single full-length interval; an
// all-silent recording comes back empty.
func DetectKeptIntervals(samples []int16, sampleRate int, opts SilenceOptions) []Interval {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}

	windowSamples := int(float64(sampleRate) * opts.Window.Seconds())
	if windowSamples <= 0 {
		windowSamples = sampleRate / 10
	}

	numWindows := (len(samples) + windowSamples - 1) / windowSamples
	silent := make([]bool, numWindows)
	for w := 0; w < numWindows; w++ {
		start := w * windowSamples
		end := start + windowSamples
		if end > len(samples) {
			end = len(samples)
		}
		silent[w] = windowRMS(samples[start:end]) < opts.Threshold
	}

	windowDur := float64(windowSamples) / float64(sampleRate)
	minSilentWindows := int(math.Ceil(opts.MinSilence.Seconds() / windowDur))
	if minSilentWindows < 1 {
		minSilentWindows = 1
	}

	totalDur := float64(len(samples)) / float64(sampleRate)

	// Collect removable runs: consecutive silent windows of sufficient length.
	type run struct{ start, end float64 }
	var removed []run
	runStart := -1
	for w := 0; w <= numWindows; w++ {
		if w < numWindows && silent[w] {
			if runStart < 0 {
				runStart = w
			}
			continue
		}
		if runStart >= 0 && w-runStart >= minSilentWindows {
			r := run{start: float64(runStart) * windowDur, end: float64(w) * windowDur}
			if r.end > totalDur {
				r.end = totalDur
			}
			removed = append(removed, r)
		}
		runStart = -1
	}

	var kept []Interval
	cursor := 0.0
	croppedCursor := 0.0
	for _, r := range removed {
		if r.start > cursor {
			kept = append(kept, Interval{OrigStart: cursor, OrigEnd: r.start, CroppedStart: croppedCursor})
			croppedCursor += r.start - cursor
		}
		cursor = r.end
	}
	if cursor < totalDur {
		kept = append(kept, Interval{OrigStart: cursor, OrigEnd: totalDur, CroppedStart: croppedCursor})
	}
	return kept
}

// Crop concatenates the kept sample ranges into a new PCM buffer.
func Crop(samples []int16, sampleRate int, intervals []Interval) []int16 {
	var out []int16
	for _, iv := range intervals {
		start := int(iv.OrigStart * float64(sampleRate))
		end := int(iv.OrigEnd * float64(sampleRate))
		if start < 0 {
			start = 0
		}
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			continue
		}
		out = append(out, samples[start:end]...)
	}
	return out
}

func windowRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
