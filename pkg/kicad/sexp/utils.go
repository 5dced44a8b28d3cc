package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// S-expression navigation helpers

// SexpToSlice returns the elements of a list, or nil for atoms
func SexpToSlice(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if list, ok := s.(*kicadsexp.List); ok && list != nil {
		return list.Items()
	}
	return nil
}

// GetNodeName returns the leading symbol of a list: "at" for (at 1 2)
func GetNodeName(s kicadsexp.Sexp) (string, error) {
	items := SexpToSlice(s)
	if len(items) == 0 {
		return "", fmt.Errorf("expected non-empty list")
	}
	sym, ok := items[0].(kicadsexp.Symbol)
	if !ok {
		return "", fmt.Errorf("expected symbol as node name, got %T", items[0])
	}
	return string(sym), nil
}

// FindNode searches for a direct child list with the given key.
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (kicadsexp.Sexp, bool) {
	for _, item := range SexpToSlice(s) {
		if name, err := GetNodeName(item); err == nil && name == key {
			return item, true
		}
	}
	return nil, false
}

// FindAllNodes finds all direct child lists with the given key
func FindAllNodes(s kicadsexp.Sexp, key string) []kicadsexp.Sexp {
	var results []kicadsexp.Sexp
	for _, item := range SexpToSlice(s) {
		if name, err := GetNodeName(item); err == nil && name == key {
			results = append(results, item)
		}
	}
	return results
}

// HasFlag reports whether a bare symbol appears among the direct children,
// e.g. "locked" in (segment locked (start ...) ...)
func HasFlag(s kicadsexp.Sexp, flag string) bool {
	for _, item := range SexpToSlice(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == flag {
			return true
		}
	}
	if node, ok := FindNode(s, flag); ok {
		v, err := GetString(node, 1)
		return err != nil || v == "yes"
	}
	return false
}

// GetListItems returns all items in a list excluding the key.
// Example: GetListItems((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"]
func GetListItems(s kicadsexp.Sexp) []kicadsexp.Sexp {
	items := SexpToSlice(s)
	if len(items) <= 1 {
		return nil
	}
	return items[1:]
}

// GetStrings returns every atom after the key, skipping nested lists
func GetStrings(s kicadsexp.Sexp) []string {
	var out []string
	for _, item := range GetListItems(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok {
			out = append(out, string(sym))
		}
	}
	return out
}

// Typed value extraction helpers.
// Index 0 is the key, 1 is the first value, etc.

// GetString extracts an atom at the given index in a list
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	items := SexpToSlice(s)
	if items == nil {
		return "", fmt.Errorf("expected list, got leaf")
	}
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}
	sym, ok := items[index].(kicadsexp.Symbol)
	if !ok {
		return "", fmt.Errorf("expected symbol at index %d, got %T", index, items[index])
	}
	return string(sym), nil
}

// GetQuotedString extracts a string at the given index.
// The lexer has already removed the quotes, so this is GetString under a
// name that documents intent at the call site.
func GetQuotedString(s kicadsexp.Sexp, index int) (string, error) {
	return GetString(s, index)
}

// GetFloat extracts a float value at the given index
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float '%s': %w", str, err)
	}
	return val, nil
}

// GetInt extracts an integer value at the given index
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int '%s': %w", str, err)
	}
	return val, nil
}

// GetPosition parses an (at x y), (start x y) or (xy x y) node
func GetPosition(s kicadsexp.Sexp) (Position, error) {
	x, err := GetFloat(s, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X coordinate: %w", err)
	}
	y, err := GetFloat(s, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y coordinate: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

// GetPositionAngle parses (at x y [angle])
func GetPositionAngle(s kicadsexp.Sexp) (PositionAngle, error) {
	pos, err := GetPosition(s)
	if err != nil {
		return PositionAngle{}, err
	}
	pa := PositionAngle{Position: pos}
	if angle, err := GetFloat(s, 3); err == nil {
		pa.Angle = Angle(angle)
	}
	return pa, nil
}

// FindPosition locates the named child node and parses it as a position
func FindPosition(s kicadsexp.Sexp, key string) (Position, error) {
	node, found := FindNode(s, key)
	if !found {
		return Position{}, fmt.Errorf("missing required '%s' position", key)
	}
	pos, err := GetPosition(node)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse %s position: %w", key, err)
	}
	return pos, nil
}

// GetPoints extracts (xy x y) pairs from a (pts ...) node
func GetPoints(pts kicadsexp.Sexp) ([]Position, error) {
	var points []Position
	for _, xy := range FindAllNodes(pts, "xy") {
		p, err := GetPosition(xy)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// GetUUID extracts (uuid "...") or the legacy (tstamp ...) identifier
func GetUUID(s kicadsexp.Sexp) UUID {
	for _, key := range []string{"uuid", "tstamp"} {
		if node, found := FindNode(s, key); found {
			if v, err := GetString(node, 1); err == nil {
				return UUID(v)
			}
		}
	}
	return ""
}
