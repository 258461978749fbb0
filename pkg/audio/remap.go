package audio

// MapTime projects a timestamp on the original timeline onto the cropped
// timeline. Timestamps inside a removed gap snap to the start of the next
// kept interval (or the end of the cropped audio when no interval follows).
func MapTime(t float64, intervals []Interval) float64 {
	if len(intervals) == 0 {
		return 0
	}
	for _, iv := range intervals {
		if t < iv.OrigStart {
			return iv.CroppedStart
		}
		if t <= iv.OrigEnd {
			return iv.CroppedStart + (t - iv.OrigStart)
		}
	}
	last := intervals[len(intervals)-1]
	return last.CroppedStart + (last.OrigEnd - last.OrigStart)
}

// RemapSpan projects a [start, end] span onto the cropped timeline. Spans
// that straddle a removed gap are clipped to the kept audio they overlap;
// spans entirely inside removed audio are dropped (ok is false).
func RemapSpan(start, end float64, intervals []Interval) (float64, float64, bool) {
	if end <= start {
		return 0, 0, false
	}
	overlaps := false
	for _, iv := range intervals {
		if start < iv.OrigEnd && end > iv.OrigStart {
			overlaps = true
			break
		}
	}
	if !overlaps {
		return 0, 0, false
	}
	s := MapTime(start, intervals)
	e := MapTime(end, intervals)
	if e <= s {
		return 0, 0, false
	}
	return s, e, true
}
