package executor

import (
	"fmt"
	"time"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// BatchResult aggregates the results of one multi-call batch.
type BatchResult struct {
	Results      []tool.Result
	Successes    int
	Failures     int
	AllSucceeded bool

	// TotalDuration is the longest single call in the batch, the batch's
	// wall time had the calls run concurrently.
	TotalDuration time.Duration
}

// NewBatchResult aggregates per-call results in their input order.
func NewBatchResult(results []tool.Result) BatchResult {
	b := BatchResult{Results: results}
	for _, r := range results {
		if r.Outcome.Succeeded() {
			b.Successes++
		} else {
			b.Failures++
		}
		if r.Duration > b.TotalDuration {
			b.TotalDuration = r.Duration
		}
	}
	b.AllSucceeded = b.Failures == 0
	return b
}

// Summary renders the batch as "X/Y succeeded, Z failed in Ts".
func (b BatchResult) Summary() string {
	return fmt.Sprintf("%d/%d succeeded, %d failed in %.1fs",
		b.Successes, len(b.Results), b.Failures, b.TotalDuration.Seconds())
}
