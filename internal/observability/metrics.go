// Package observability exposes placement runs as Prometheus metrics.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
)

// PlacementCollector bundles the placement metrics and implements
// placement.Observer.
type PlacementCollector struct {
	gatherer prometheus.Gatherer

	Candidates   *prometheus.CounterVec
	Placed       prometheus.Counter
	RunDuration  prometheus.Histogram
	IndexObjects prometheus.Gauge
}

var _ placement.Observer = (*PlacementCollector)(nil)

// NewPlacementCollector registers the placement metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPlacementCollector(reg prometheus.Registerer) (*PlacementCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	candidates, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "viagrid_candidates_total",
		Help: "Grid candidates examined, labeled by outcome.",
	}, []string{"outcome"}), "viagrid_candidates_total")
	if err != nil {
		return nil, err
	}

	placed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viagrid_vias_placed_total",
		Help: "Vias committed to the board.",
	}), "viagrid_vias_placed_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "viagrid_run_duration_seconds",
		Help:    "Placement run duration in seconds.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}), "viagrid_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	objects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "viagrid_index_objects",
		Help: "Copper objects in the clearance index at the start of the last run.",
	}), "viagrid_index_objects")
	if err != nil {
		return nil, err
	}

	return &PlacementCollector{
		gatherer:     gatherer,
		Candidates:   candidates,
		Placed:       placed,
		RunDuration:  duration,
		IndexObjects: objects,
	}, nil
}

// IndexBuilt implements placement.Observer
func (c *PlacementCollector) IndexBuilt(objects int) {
	if c == nil {
		return
	}
	c.IndexObjects.Set(float64(objects))
}

// Candidate implements placement.Observer
func (c *PlacementCollector) Candidate(outcome placement.Outcome) {
	if c == nil {
		return
	}
	c.Candidates.WithLabelValues(outcome.String()).Inc()
	if outcome == placement.Accepted {
		c.Placed.Inc()
	}
}

// Finished implements placement.Observer
func (c *PlacementCollector) Finished(_ *placement.Result, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RunDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the gathered metrics in the node exporter textfile
// collector format.
func (c *PlacementCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
