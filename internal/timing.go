package site

import (
	"strconv"
	"time"
)

// checkTiming reports whether enough time passed between the form being
// rendered and being submitted. renderedAt is the Unix-seconds stamp the page
// echoes back on submission; a missing or non-numeric stamp is always treated
// as too fast. The computed elapsed duration is returned for logging (zero
// when the stamp was unparseable).
func checkTiming(renderedAt string, min time.Duration, now time.Time) (bool, time.Duration) {
	if renderedAt == "" {
		return false, 0
	}
	ts, err := strconv.ParseFloat(renderedAt, 64)
	if err != nil {
		return false, 0
	}
	nowSeconds := float64(now.UnixMilli()) / 1000
	elapsed := time.Duration((nowSeconds - ts) * float64(time.Second))
	if elapsed < min {
		return false, elapsed
	}
	return true, elapsed
}
