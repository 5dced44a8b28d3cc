package pcb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// UUIDTokenVersion is the first file version that writes (uuid "...")
// instead of (tstamp ...) on board items.
const UUIDTokenVersion = 20231014

// WriteVias copies src to dst and inserts one (via ...) node per via before
// the closing parenthesis of the kicad_pcb list. Every other byte of src is
// preserved, so the file diff only shows the added vias.
func WriteVias(dst io.Writer, src []byte, vias []Via, version int) error {
	end := bytes.LastIndexByte(src, ')')
	if end < 0 {
		return fmt.Errorf("source is not a KiCad board: no closing parenthesis")
	}

	w := bufio.NewWriter(dst)
	head := src[:end]
	if _, err := w.Write(head); err != nil {
		return err
	}
	if len(head) > 0 && head[len(head)-1] != '\n' {
		w.WriteByte('\n')
	}
	for _, v := range vias {
		if _, err := w.WriteString("\t" + FormatVia(v, version) + "\n"); err != nil {
			return err
		}
	}
	if _, err := w.Write(src[end:]); err != nil {
		return err
	}
	return w.Flush()
}

// WriteAdded writes src with every via added through AddVia
func (b *Board) WriteAdded(dst io.Writer, src []byte) error {
	return WriteVias(dst, src, b.added, b.Version)
}

// FormatVia renders a via node in the board file syntax of the given version
func FormatVia(v Via, version int) string {
	var b strings.Builder

	b.WriteString("(via")
	if v.Locked && version < UUIDTokenVersion {
		b.WriteString(" locked")
	}
	fmt.Fprintf(&b, " (at %s %s) (size %s) (drill %s)",
		formatMM(v.Position.X), formatMM(v.Position.Y), formatMM(v.Size), formatMM(v.Drill))

	layers := v.Layers
	if len(layers) == 0 {
		layers = LayerSet{"F.Cu", "B.Cu"}
	}
	b.WriteString(" (layers")
	for _, l := range layers {
		fmt.Fprintf(&b, " %q", l)
	}
	b.WriteString(")")

	if v.Locked && version >= UUIDTokenVersion {
		b.WriteString(" (locked yes)")
	}

	net := 0
	if v.Net != nil {
		net = v.Net.Number
	}
	fmt.Fprintf(&b, " (net %d)", net)

	id := string(v.UUID)
	if id == "" {
		id = uuid.NewString()
	}
	if version >= UUIDTokenVersion {
		fmt.Fprintf(&b, " (uuid %q)", id)
	} else {
		fmt.Fprintf(&b, " (tstamp %s)", id)
	}

	b.WriteString(")")
	return b.String()
}

func formatMM(mm float64) string {
	return units.FormatMM(sexp.ToNanometers(mm))
}
