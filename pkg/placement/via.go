package placement

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// DefaultLayers is the through-hole layer pair
var DefaultLayers = [2]string{"F.Cu", "B.Cu"}

// ViaSpec describes the vias to place. Lengths are in nanometres.
type ViaSpec struct {
	OuterDiameter int64
	Drill         int64
	Net           string
	Layers        [2]string
}

// Validate requires 0 < drill < outer diameter and a net name
func (v ViaSpec) Validate() error {
	if v.Drill <= 0 {
		return fmt.Errorf("%w: drill must be positive (got %s mm)", ErrInvalidParameter, units.FormatMM(v.Drill))
	}
	if v.Drill >= v.OuterDiameter {
		return fmt.Errorf("%w: drill %s mm must be smaller than diameter %s mm",
			ErrInvalidParameter, units.FormatMM(v.Drill), units.FormatMM(v.OuterDiameter))
	}
	if v.Net == "" {
		return fmt.Errorf("%w: via net is empty", ErrInvalidParameter)
	}
	return nil
}

// LayerPair returns the layers, falling back to DefaultLayers
func (v ViaSpec) LayerPair() [2]string {
	if v.Layers[0] == "" || v.Layers[1] == "" {
		return DefaultLayers
	}
	return v.Layers
}
