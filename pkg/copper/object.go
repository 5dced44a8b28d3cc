// Package copper models the existing copper a new via must keep clear of,
// and indexes it for neighbourhood queries.
package copper

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// NetID identifies an electrical net. Objects on the same NetID are connected.
type NetID int

// Kind is the closed set of copper object variants
type Kind int

const (
	Via Kind = iota
	Pad
	Track
)

func (k Kind) String() string {
	switch k {
	case Via:
		return "via"
	case Pad:
		return "pad"
	case Track:
		return "track"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Object is one piece of copper. Size is the via diameter, the pad's larger
// dimension, or the track width. End is only meaningful for tracks.
type Object struct {
	Kind Kind
	At   geom.Point
	End  geom.Point
	Size int64
	Net  NetID
}

// NewVia returns a via object
func NewVia(at geom.Point, diameter int64, net NetID) Object {
	return Object{Kind: Via, At: at, End: at, Size: diameter, Net: net}
}

// NewPad returns a pad object approximated by a circle of the given size
func NewPad(at geom.Point, size int64, net NetID) Object {
	return Object{Kind: Pad, At: at, End: at, Size: size, Net: net}
}

// NewTrack returns a straight track segment
func NewTrack(start, end geom.Point, width int64, net NetID) Object {
	return Object{Kind: Track, At: start, End: end, Size: width, Net: net}
}

// Radius returns the effective radius: half the diameter, pad size or track width
func (o Object) Radius() int64 {
	return o.Size / 2
}

// RadiusF returns the effective radius without truncation
func (o Object) RadiusF() float64 {
	return float64(o.Size) / 2
}

// Distance returns the centre-line distance from p to the object:
// point distance for vias and pads, point-to-segment distance for tracks
func (o Object) Distance(p geom.Point) float64 {
	if o.Kind == Track {
		return geom.DistanceToSegment(p, o.At, o.End)
	}
	return geom.Distance(p, o.At)
}

func (o Object) String() string {
	if o.Kind == Track {
		return fmt.Sprintf("track %v-%v w=%d net=%d", o.At, o.End, o.Size, o.Net)
	}
	return fmt.Sprintf("%s %v d=%d net=%d", o.Kind, o.At, o.Size, o.Net)
}
