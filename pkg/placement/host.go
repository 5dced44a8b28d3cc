package placement

import (
	"time"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// Host is the board the vias are placed on
type Host interface {
	// FindNet resolves a net name to its identifier
	FindNet(name string) (copper.NetID, bool)
	// Snapshot returns the existing vias, pads and tracks
	Snapshot() []copper.Object
	// AddVia commits one via
	AddVia(at geom.Point, v ViaSpec, net copper.NetID) error
}

// Outcome is the decision taken for one candidate
type Outcome int

const (
	Accepted Outcome = iota
	RejectedClearance
	RejectedCommit
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedClearance:
		return "clearance"
	case RejectedCommit:
		return "commit_failed"
	default:
		return "unknown"
	}
}

// Observer receives run events, e.g. for metrics
type Observer interface {
	IndexBuilt(objects int)
	Candidate(outcome Outcome)
	Finished(res *Result, elapsed time.Duration)
}

// Progress is reported to a ProgressFunc
type Progress struct {
	Processed int
	Total     int
	Placed    int
	Skipped   int
}

// ProgressFunc is called between candidates
type ProgressFunc func(Progress)
