package placement

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// Skip records a candidate that was not placed
type Skip struct {
	At        geom.Point
	Reason    Outcome
	Violation clearance.Violation // set for RejectedClearance
	Err       error               // set for RejectedCommit
}

func (s Skip) String() string {
	if s.Reason == RejectedCommit {
		return fmt.Sprintf("%v: %v", s.At, s.Err)
	}
	return fmt.Sprintf("%v: %v", s.At, s.Violation)
}

// Result is the outcome of one run. Accepted is in placement order.
type Result struct {
	Accepted     []geom.Point
	Skipped      []Skip
	Placed       int
	Rejected     int // clearance rejections
	CommitFailed int
	Candidates   int // candidates examined
	Total        int // candidates the grid holds
	Interrupted  bool
}

// SkippedCount is the number of candidates not placed
func (r *Result) SkippedCount() int {
	return r.Rejected + r.CommitFailed
}
