package clearance

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// Violation describes the first object a candidate conflicts with
type Violation struct {
	Object   copper.Object
	Distance float64 // centre to object distance
	Required float64 // minimum legal distance
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %.0fnm, needs %.0fnm", v.Object, v.Distance, v.Required)
}

// Engine checks candidates against an index of existing copper.
// With Exhaustive set it scans every object instead of querying the index;
// both modes give the same answers.
type Engine struct {
	Index      *copper.Index
	Exhaustive bool
}

// Required returns the minimum centre distance between a via of the given
// radius on net and obj. ok is false when the pair is unconstrained, which
// is the case for same-net pads and tracks.
func Required(radius float64, net copper.NetID, obj copper.Object, p Policy) (required float64, ok bool) {
	if obj.Net == net {
		if obj.Kind != copper.Via {
			return 0, false
		}
		return radius + obj.RadiusF() + float64(p.ViaToViaClearance), true
	}
	return radius + obj.RadiusF() + float64(p.MinClearance), true
}

// FirstViolation returns the first object that a via of outerDiameter at p
// on net would be too close to. A distance equal to the requirement is legal.
func (e Engine) FirstViolation(p geom.Point, outerDiameter int64, net copper.NetID, r Resolver) (Violation, bool) {
	if e.Index == nil {
		return Violation{}, false
	}
	radius := float64(outerDiameter) / 2

	var found Violation
	var bad bool
	check := func(obj copper.Object) bool {
		required, ok := Required(radius, net, obj, r.Resolve(net, obj))
		if !ok {
			return true
		}
		if d := obj.Distance(p); d < required {
			found = Violation{Object: obj, Distance: d, Required: required}
			bad = true
			return false
		}
		return true
	}

	if e.Exhaustive {
		e.Index.All(check)
	} else {
		reach := (outerDiameter+1)/2 + r.MaxClearance()
		e.Index.Near(p, reach, check)
	}
	return found, bad
}

// IsPlacementLegal reports whether a via of outerDiameter may be placed at p on net
func (e Engine) IsPlacementLegal(p geom.Point, outerDiameter int64, net copper.NetID, r Resolver) bool {
	_, bad := e.FirstViolation(p, outerDiameter, net, r)
	return !bad
}
