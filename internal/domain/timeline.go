package domain

import "time"

const (
	// DayWindow is the span after the query time searched for wind vectors.
	DayWindow = 24 * time.Hour

	// WindVectorPadding is the number of extra items kept on each side of a
	// wind-vector window.
	WindVectorPadding = 3

	// SwathPadding is the number of neighbours kept on each side of the
	// nearest swath.
	SwathPadding = 5
)

// NearestIndex returns the index of the timestamp in sorted closest to target.
// Targets at or before the first element resolve to 0 and targets at or after
// the last resolve to the last index. Otherwise a binary search runs, keeping
// the closest midpoint seen so far; on equal distance the earlier visited
// midpoint wins. Returns -1 for an empty slice.
func NearestIndex(sorted []time.Time, target time.Time) int {
	if len(sorted) == 0 {
		return -1
	}
	l, r := 0, len(sorted)-1
	if !target.After(sorted[l]) {
		return l
	}
	if !target.Before(sorted[r]) {
		return r
	}

	best := 0
	bestDiff := time.Duration(-1)
	for l <= r {
		mid := l + (r-l)/2
		midTime := sorted[mid]
		if midTime.Equal(target) {
			return mid
		}
		if target.Before(midTime) {
			r = mid - 1
		} else {
			l = mid + 1
		}
		diff := absDuration(target.Sub(midTime))
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			best = mid
		}
	}
	return best
}

// WindowIndices returns the inclusive index range of sorted covering
// [target, target+window], widened by padding items on each side and clamped
// to the slice bounds. It returns (-1, -1) when sorted is empty, target is
// zero, target lies outside the timeline, or the clamped range is empty.
func WindowIndices(sorted []time.Time, target time.Time, window time.Duration, padding int) (int, int) {
	if len(sorted) == 0 || target.IsZero() {
		return -1, -1
	}
	left, right := 0, len(sorted)-1
	if target.Before(sorted[left]) || target.After(sorted[right]) {
		return -1, -1
	}

	end := target.Add(window)
	for left < len(sorted)-1 && sorted[left].Before(target) {
		left++
	}
	for right > 0 && sorted[right].After(end) {
		right--
	}

	left -= padding
	right += padding
	if left < 0 {
		left = 0
	}
	if right > len(sorted)-1 {
		right = len(sorted) - 1
	}
	if left > right {
		return -1, -1
	}
	return left, right
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
