package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/project"
)

// ErrUnsupportedCondition is returned for well-formed conditions that use
// objects or properties this evaluator does not know
var ErrUnsupportedCondition = errors.New("unsupported rule condition")

// Item is what a condition sees of one side of a pair
type Item struct {
	NetName  string
	NetClass string
	Type     string
}

// Matcher evaluates a compiled condition for the ordered pair (a, b)
type Matcher func(a, b Item) bool

var (
	conditionParser     *participle.Parser[Condition]
	conditionParserErr  error
	conditionParserOnce sync.Once
)

func parser() (*participle.Parser[Condition], error) {
	conditionParserOnce.Do(func() {
		conditionParser, conditionParserErr = participle.Build[Condition](
			participle.Lexer(ConditionLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		)
	})
	return conditionParser, conditionParserErr
}

// ParseCondition parses and compiles a condition expression
func ParseCondition(expr string) (Matcher, error) {
	p, err := parser()
	if err != nil {
		return nil, fmt.Errorf("failed to build condition parser: %w", err)
	}
	ast, err := p.ParseString("", expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse condition %q: %w", expr, err)
	}
	return compileCondition(ast)
}

func compileCondition(c *Condition) (Matcher, error) {
	ors := make([]Matcher, 0, len(c.Or))
	for _, a := range c.Or {
		m, err := compileAnd(a)
		if err != nil {
			return nil, err
		}
		ors = append(ors, m)
	}
	if len(ors) == 1 {
		return ors[0], nil
	}
	return func(a, b Item) bool {
		for _, m := range ors {
			if m(a, b) {
				return true
			}
		}
		return false
	}, nil
}

func compileAnd(e *AndExpr) (Matcher, error) {
	ands := make([]Matcher, 0, len(e.And))
	for _, t := range e.And {
		m, err := compileTerm(t)
		if err != nil {
			return nil, err
		}
		ands = append(ands, m)
	}
	if len(ands) == 1 {
		return ands[0], nil
	}
	return func(a, b Item) bool {
		for _, m := range ands {
			if !m(a, b) {
				return false
			}
		}
		return true
	}, nil
}

func compileTerm(t *Term) (Matcher, error) {
	var (
		m   Matcher
		err error
	)
	switch {
	case t.Operand.Sub != nil:
		m, err = compileCondition(t.Operand.Sub)
	case t.Operand.Cmp != nil:
		m, err = compileComparison(t.Operand.Cmp)
	default:
		err = fmt.Errorf("%w: empty operand", ErrUnsupportedCondition)
	}
	if err != nil {
		return nil, err
	}
	if t.Not {
		inner := m
		m = func(a, b Item) bool { return !inner(a, b) }
	}
	return m, nil
}

func compileComparison(c *Comparison) (Matcher, error) {
	var side func(a, b Item) Item
	switch c.Object {
	case "A":
		side = func(a, _ Item) Item { return a }
	case "B":
		side = func(_, b Item) Item { return b }
	default:
		return nil, fmt.Errorf("%w: unknown object %q", ErrUnsupportedCondition, c.Object)
	}

	value := c.Value[1 : len(c.Value)-1]

	var test func(Item) bool
	switch c.Property {
	case "NetName":
		re, err := project.Wildcard(value)
		if err != nil {
			return nil, err
		}
		test = func(it Item) bool { return re.MatchString(it.NetName) }
	case "NetClass":
		re, err := project.Wildcard(value)
		if err != nil {
			return nil, err
		}
		test = func(it Item) bool { return re.MatchString(it.NetClass) }
	case "Type":
		test = func(it Item) bool { return strings.EqualFold(it.Type, value) }
	default:
		return nil, fmt.Errorf("%w: unknown property %s.%s", ErrUnsupportedCondition, c.Object, c.Property)
	}

	if c.Op == "!=" {
		return func(a, b Item) bool { return !test(side(a, b)) }, nil
	}
	return func(a, b Item) bool { return test(side(a, b)) }, nil
}
