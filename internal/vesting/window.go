package vesting

import "time"

// Window computes the display slice [start, end) anchored at the current
// schedule index: the window ends at min(currentIdx+width, horizon) and keeps
// the requested width by extending into history when the end of the horizon
// is near.
func Window(currentIdx, width, horizon int) (start, end int) {
	end = currentIdx + width
	if end > horizon {
		end = horizon
	}
	start = end - width
	if start < 0 {
		start = 0
	}
	return start, end
}

// MonthLabels renders calendar labels for schedule indices [start, end). The
// anchor month corresponds to scheduleIdx, so index i labels the month
// (i - scheduleIdx) months away from the anchor.
func MonthLabels(anchor time.Time, scheduleIdx, start, end int) []string {
	labels := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		labels = append(labels, anchor.AddDate(0, i-scheduleIdx, 0).Format("Jan 2006"))
	}
	return labels
}
