// Package kicadsexp provides a lightweight streaming S-expression parser
// for KiCad board and design-rule files. Unlike general-purpose sexp libraries,
// this parser keeps quoted strings intact and handles arbitrarily large files.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node.
// It can be either a leaf (atom) or a list.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// LeafCount returns the number of elements in a list (1 for atoms)
	LeafCount() int

	// Head returns the first element of a list (the atom itself for atoms)
	Head() Sexp

	// Tail returns the rest of the list after the first element (nil for atoms)
	Tail() Sexp

	// String returns the string representation
	String() string
}

// Symbol represents an atom (bare word, number, or the contents of a quoted string)
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) LeafCount() int { return 1 }
func (s Symbol) Head() Sexp     { return s }
func (s Symbol) Tail() Sexp     { return nil }
func (s Symbol) String() string { return string(s) }

// List represents a parenthesised list of S-expressions
type List struct {
	elements []Sexp
}

func (l *List) IsLeaf() bool { return false }

func (l *List) LeafCount() int {
	return len(l.elements)
}

func (l *List) Head() Sexp {
	if len(l.elements) == 0 {
		return nil
	}
	return l.elements[0]
}

func (l *List) Tail() Sexp {
	if len(l.elements) <= 1 {
		return nil
	}
	return &List{elements: l.elements[1:]}
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		if sym, ok := elem.(Symbol); ok {
			b.WriteString(Quote(string(sym)))
			continue
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.elements)
}

// Items returns the list elements. The slice must not be modified.
func (l *List) Items() []Sexp {
	return l.elements
}

// Parse parses all top-level S-expressions from an io.Reader.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses S-expressions from a string
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}

// Quote renders an atom so that it reads back as the same Symbol.
// Bare words are emitted as-is; anything containing delimiters is quoted.
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\r\n()\"\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}
