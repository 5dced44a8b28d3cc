// Package placement runs the grid, check and commit loop that stitches vias
// into a region.
package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/logging"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// DefaultProgressEvery is the number of candidates between progress reports
const DefaultProgressEvery = 10

// Request is the input of one run
type Request struct {
	Region geom.Region
	Grid   grid.Spec
	Via    ViaSpec
	Policy clearance.Resolver
	// Snapshot replaces host.Snapshot() when non-nil
	Snapshot []copper.Object
	// SkipClearance places at every grid point without checking copper
	SkipClearance bool
	// Exhaustive checks every object instead of querying the k-d tree index
	Exhaustive bool
}

// Orchestrator places vias. It keeps no state between runs.
type Orchestrator struct {
	log       logging.Logger
	observer  Observer
	progress  ProgressFunc
	every     int
	indexStep int64
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver sets an observer for run events
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithProgress reports progress every n candidates and once at the end.
// n <= 0 selects DefaultProgressEvery.
func WithProgress(fn ProgressFunc, n int) Option {
	return func(o *Orchestrator) {
		o.progress = fn
		if n > 0 {
			o.every = n
		}
	}
}

// WithIndexStep sets the anchor spacing along tracks in the copper index
func WithIndexStep(step int64) Option {
	return func(o *Orchestrator) { o.indexStep = step }
}

// New creates an Orchestrator
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:       logging.Noop(),
		every:     DefaultProgressEvery,
		indexStep: copper.DefaultAnchorStep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) validate(req Request) error {
	if err := req.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	if err := req.Via.Validate(); err != nil {
		return err
	}
	if req.Policy == nil && !req.SkipClearance {
		return fmt.Errorf("%w: no clearance policy", ErrInvalidParameter)
	}
	if v, ok := req.Policy.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
	}
	if req.Region == nil || req.Region.Bounds().Empty() {
		return ErrEmptyRegion
	}
	return nil
}

// Run places vias at every legal grid point of req.Region, in raster order.
// Precondition failures return an error before the host is touched. When
// ctx is cancelled the partial result is returned with Interrupted set;
// vias already committed stay on the board.
func (o *Orchestrator) Run(ctx context.Context, host Host, req Request) (*Result, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	net, ok := host.FindNet(req.Via.Net)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNetNotFound, req.Via.Net)
	}

	total, err := grid.Count(req.Region, req.Grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	positions, err := grid.Positions(req.Region, req.Grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	snapshot := req.Snapshot
	if snapshot == nil {
		snapshot = host.Snapshot()
	}
	index := copper.NewIndex(snapshot, o.indexStep)
	if o.observer != nil {
		o.observer.IndexBuilt(index.Len())
	}
	engine := clearance.Engine{Index: index, Exhaustive: req.Exhaustive}

	ctx, log := logging.WithRunLogger(ctx, o.log)
	log.Info(ctx, "placement started",
		logging.String("net", req.Via.Net),
		logging.Int("candidates", total),
		logging.Int("copper_objects", index.Len()),
		logging.String("spacing_mm", units.FormatMM(req.Grid.Spacing)),
		logging.Any("stagger", req.Grid.Stagger))

	start := time.Now()
	res := &Result{Total: total}

	for p := range positions {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		res.Candidates++
		o.decide(ctx, log, host, engine, req, net, p, res)

		if o.progress != nil && res.Candidates%o.every == 0 {
			o.progress(o.snapshotProgress(res))
		}
	}

	if o.progress != nil && (res.Candidates%o.every != 0 || res.Candidates == 0) {
		o.progress(o.snapshotProgress(res))
	}

	elapsed := time.Since(start)
	if o.observer != nil {
		o.observer.Finished(res, elapsed)
	}
	log.Info(ctx, "placement finished",
		logging.Int("placed", res.Placed),
		logging.Int("rejected", res.Rejected),
		logging.Int("commit_failed", res.CommitFailed),
		logging.Any("interrupted", res.Interrupted),
		logging.Any("elapsed", elapsed))

	return res, nil
}

// decide runs one Checking step and its Accepting or Skipping transition
func (o *Orchestrator) decide(ctx context.Context, log logging.Logger, host Host, engine clearance.Engine,
	req Request, net copper.NetID, p geom.Point, res *Result) {
	if !req.SkipClearance {
		if v, bad := engine.FirstViolation(p, req.Via.OuterDiameter, net, req.Policy); bad {
			res.Rejected++
			res.Skipped = append(res.Skipped, Skip{At: p, Reason: RejectedClearance, Violation: v})
			o.observe(RejectedClearance)
			log.Debug(ctx, "candidate rejected", logging.Any("at", p), logging.String("violation", v.String()))
			return
		}
	}

	if err := host.AddVia(p, req.Via, net); err != nil {
		err = fmt.Errorf("%w: %w", ErrHostCommit, err)
		res.CommitFailed++
		res.Skipped = append(res.Skipped, Skip{At: p, Reason: RejectedCommit, Err: err})
		o.observe(RejectedCommit)
		log.Warn(ctx, "via commit failed", logging.Any("at", p), logging.Err(err))
		return
	}

	engine.Index.Append(copper.NewVia(p, req.Via.OuterDiameter, net))
	res.Accepted = append(res.Accepted, p)
	res.Placed++
	o.observe(Accepted)
}

func (o *Orchestrator) observe(outcome Outcome) {
	if o.observer != nil {
		o.observer.Candidate(outcome)
	}
}

func (o *Orchestrator) snapshotProgress(res *Result) Progress {
	return Progress{
		Processed: res.Candidates,
		Total:     res.Total,
		Placed:    res.Placed,
		Skipped:   res.SkippedCount(),
	}
}
