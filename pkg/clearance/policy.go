// Package clearance decides whether a via may be placed at a position given
// the copper already on the board.
package clearance

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
)

// ErrNegativeClearance is returned by Policy.Validate
var ErrNegativeClearance = errors.New("clearance must not be negative")

// Policy holds the two clearances, in nanometres
type Policy struct {
	// MinClearance is the copper-to-copper gap required between different nets
	MinClearance int64
	// ViaToViaClearance is the gap kept between vias of the same net
	ViaToViaClearance int64
}

// Validate checks that both clearances are non-negative
func (p Policy) Validate() error {
	if p.MinClearance < 0 {
		return fmt.Errorf("%w: min clearance %d", ErrNegativeClearance, p.MinClearance)
	}
	if p.ViaToViaClearance < 0 {
		return fmt.Errorf("%w: via-to-via clearance %d", ErrNegativeClearance, p.ViaToViaClearance)
	}
	return nil
}

// Resolver picks the clearances that apply between a candidate via on net
// candidate and an existing object. Implementations must be pure.
type Resolver interface {
	Resolve(candidate copper.NetID, obj copper.Object) Policy
	// MaxClearance bounds every clearance Resolve can return
	MaxClearance() int64
}

// Resolve returns p for every pair: a flat policy
func (p Policy) Resolve(copper.NetID, copper.Object) Policy {
	return p
}

// MaxClearance returns the larger of the two clearances
func (p Policy) MaxClearance() int64 {
	return max(p.MinClearance, p.ViaToViaClearance)
}
