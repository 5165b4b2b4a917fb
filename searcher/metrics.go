package searcher

import "time"

// SearchMetrics summarizes one Search call.
type SearchMetrics struct {
	Duration    time.Duration
	Simulations int
	TreeBytes   int64
	Solved      bool
}

// SimsPerSecond is zero for a zero-duration search rather than Inf, so the
// value stays printable and CSV-safe.
func (m SearchMetrics) SimsPerSecond() float64 {
	secs := m.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Simulations) / secs
}
