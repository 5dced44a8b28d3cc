package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/project"
)

var netsProject string

var netsCmd = &cobra.Command{
	Use:   "nets <board_file>",
	Short: "List the nets of a board",
	Long: `Lists every net with its pad, track, via and zone counts.
With --project the net class of each net is shown as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runNets,
}

var zonesCmd = &cobra.Command{
	Use:   "zones <board_file>",
	Short: "List the copper zones of a board",
	Args:  cobra.ExactArgs(1),
	RunE:  runZones,
}

func init() {
	rootCmd.AddCommand(netsCmd)
	rootCmd.AddCommand(zonesCmd)

	netsCmd.Flags().StringVar(&netsProject, "project", "", "KiCad project file (.kicad_pro) for net classes")
}

func runNets(cmd *cobra.Command, args []string) error {
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	var proj *project.Project
	if netsProject != "" {
		proj, err = project.ParseFile(netsProject)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%-30s %-12s %6s %6s %6s %6s\n", "Net Name", "Class", "Pads", "Tracks", "Vias", "Zones")
	fmt.Printf("%s\n", "-------------------------------------------------------------------------")
	for _, info := range board.NetSummary() {
		if info.Net.Name == "" {
			continue
		}
		fmt.Printf("%-30s %-12s %6d %6d %6d %6d\n",
			info.Net.Name, proj.NetClassOf(info.Net.Name), info.Pads, info.Tracks, info.Vias, info.Zones)
	}
	return nil
}

func runZones(cmd *cobra.Command, args []string) error {
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	zones := board.CopperZones()
	if len(zones) == 0 {
		fmt.Println("No copper zones")
		return nil
	}

	fmt.Printf("%-20s %-16s %-16s %14s %10s\n", "Net", "Name", "Layers", "Size (mm)", "Area (mm²)")
	fmt.Printf("%s\n", "------------------------------------------------------------------------------")
	for _, z := range zones {
		bbox := pcb.NewBoundingBox()
		for _, p := range z.Outline {
			bbox.Expand(p)
		}
		name := z.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-20s %-16s %-16s %14s %10.2f\n", z.NetName, name, strings.Join(z.Layers, ","),
			fmt.Sprintf("%.2f x %.2f", bbox.Width(), bbox.Height()), math.Abs(outlineArea(z.Outline)))
	}
	return nil
}

// outlineArea is the shoelace area of a zone outline in mm²
func outlineArea(pts []pcb.Position) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}
