// Package rules resolves the clearances between a candidate via and existing
// copper from net classes and KiCad custom design rules.
package rules

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// Constraint names understood in (constraint ...) clauses
const (
	ConstraintClearance    = "clearance"
	ConstraintViaClearance = "via_clearance"
)

// Rule is one custom design rule. A nil Match applies to every pair;
// nil constraint pointers leave the value untouched.
type Rule struct {
	Name         string
	Condition    string
	Match        Matcher
	Clearance    *int64
	ViaClearance *int64
}

// Applies reports whether the rule holds for the pair in either order
func (r Rule) Applies(a, b Item) bool {
	if r.Match == nil {
		return true
	}
	return r.Match(a, b) || r.Match(b, a)
}

// ParseDRUFile reads a .kicad_dru file
func ParseDRUFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules: %w", err)
	}
	defer f.Close()
	return ParseDRU(f)
}

// ParseDRU reads custom rules. Constraints other than clearance and
// via_clearance are skipped.
func ParseDRU(r io.Reader) ([]Rule, error) {
	exprs, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	var rules []Rule
	for _, expr := range exprs {
		name, err := sexp.GetNodeName(expr)
		if err != nil {
			return nil, err
		}
		switch name {
		case "version":
		case "rule":
			rule, err := parseRule(expr)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		default:
			return nil, fmt.Errorf("unexpected top-level node %q", name)
		}
	}
	return rules, nil
}

func parseRule(node kicadsexp.Sexp) (Rule, error) {
	var rule Rule

	name, err := sexp.GetQuotedString(node, 1)
	if err != nil {
		return rule, fmt.Errorf("rule without a name: %w", err)
	}
	rule.Name = name

	if cond, ok := sexp.FindNode(node, "condition"); ok {
		rule.Condition, err = sexp.GetQuotedString(cond, 1)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", name, err)
		}
		rule.Match, err = ParseCondition(rule.Condition)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", name, err)
		}
	}

	for _, c := range sexp.FindAllNodes(node, "constraint") {
		kind, err := sexp.GetString(c, 1)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", name, err)
		}
		var target **int64
		switch kind {
		case ConstraintClearance:
			target = &rule.Clearance
		case ConstraintViaClearance:
			target = &rule.ViaClearance
		default:
			continue
		}
		minNode, ok := sexp.FindNode(c, "min")
		if !ok {
			return rule, fmt.Errorf("rule %q: %s constraint has no min", name, kind)
		}
		text, err := sexp.GetString(minNode, 1)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", name, err)
		}
		nm, err := units.ParseLength(text)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", name, err)
		}
		if nm < 0 {
			return rule, fmt.Errorf("rule %q: negative %s %s", name, kind, text)
		}
		*target = &nm
	}

	return rule, nil
}
