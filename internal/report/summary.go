// Package report renders placement results as a text summary and as a PNG
// preview of the board.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// Summary describes one run for the text report
type Summary struct {
	Board  string
	Net    string
	Region string
	Via    placement.ViaSpec
	Result *placement.Result
	DryRun bool
}

// WriteSummary prints the run totals and the skip reasons
func WriteSummary(w io.Writer, s Summary) error {
	res := s.Result
	if res == nil {
		return fmt.Errorf("no result to report")
	}

	verb := "Placed"
	if s.DryRun {
		verb = "Would place"
	}

	fmt.Fprintf(w, "Board:      %s\n", s.Board)
	fmt.Fprintf(w, "Region:     %s\n", s.Region)
	fmt.Fprintf(w, "Via:        %s/%s mm on %s\n",
		units.FormatMM(s.Via.OuterDiameter), units.FormatMM(s.Via.Drill), s.Net)
	fmt.Fprintf(w, "Candidates: %d of %d\n", res.Candidates, res.Total)
	fmt.Fprintf(w, "%s %d vias, skipped %d\n", verb, res.Placed, res.SkippedCount())
	if res.Interrupted {
		fmt.Fprintln(w, "Run was interrupted; the result is partial")
	}

	if res.SkippedCount() == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %6s\n", "Skip reason", "Count")
	for _, row := range skipReasons(res) {
		fmt.Fprintf(w, "%-20s %6d\n", row.reason, row.count)
	}
	return nil
}

type reasonCount struct {
	reason string
	count  int
}

// skipReasons groups clearance skips by the kind of object that blocked them
func skipReasons(res *placement.Result) []reasonCount {
	counts := map[string]int{}
	for _, s := range res.Skipped {
		reason := s.Reason.String()
		if s.Reason == placement.RejectedClearance {
			reason = "clearance: " + blockerName(s.Violation.Object)
		}
		counts[reason]++
	}

	rows := make([]reasonCount, 0, len(counts))
	for r, c := range counts {
		rows = append(rows, reasonCount{r, c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].reason < rows[j].reason
	})
	return rows
}

func blockerName(o copper.Object) string {
	return o.Kind.String()
}
