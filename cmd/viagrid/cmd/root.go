package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/logging"
)

var (
	// Global flags
	verbose   bool
	logLevel  string
	logFormat string

	logger = logging.Noop()
)

var rootCmd = &cobra.Command{
	Use:   "viagrid",
	Short: "Grid via stitching for KiCad boards",
	Long: `viagrid fills a KiCad board, zone or rectangle with a grid of vias,
skipping every position that would violate clearance to existing copper.

Examples:
  viagrid place board.kicad_pcb                          # GND stitching over the whole board
  viagrid place board.kicad_pcb --region zone --stagger  # staggered grid inside the GND zones
  viagrid place board.kicad_pcb --dry-run --preview p.png
  viagrid nets board.kicad_pcb                           # list nets
  viagrid zones board.kicad_pcb                          # list copper zones`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logLevel
		if verbose && level == "" {
			level = "debug"
		}
		logger = logging.NewFromEnv(logging.Config{Level: level, Format: logFormat, Output: os.Stderr})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default from LOG_FORMAT)")
}
