// Package project reads the net class settings of a KiCad .kicad_pro file.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
)

// DefaultClass is the net class every unassigned net belongs to
const DefaultClass = "Default"

// NetClass holds the design values of one net class, in millimetres
type NetClass struct {
	Name        string   `json:"name"`
	Clearance   float64  `json:"clearance"`
	TrackWidth  float64  `json:"track_width"`
	ViaDiameter float64  `json:"via_diameter"`
	ViaDrill    float64  `json:"via_drill"`
	Nets        []string `json:"nets"` // KiCad 6 explicit membership
}

// ClearanceNM returns the class clearance in nanometres
func (c NetClass) ClearanceNM() int64 {
	return sexp.ToNanometers(c.Clearance)
}

type pattern struct {
	Class   string `json:"netclass"`
	Pattern string `json:"pattern"`
}

type netSettings struct {
	Classes     []NetClass                 `json:"classes"`
	Assignments map[string]json.RawMessage `json:"netclass_assignments"`
	Patterns    []pattern                  `json:"netclass_patterns"`
}

type projectFile struct {
	NetSettings netSettings `json:"net_settings"`
}

type compiledPattern struct {
	class string
	re    *regexp.Regexp
}

// Project is the net class view of a KiCad project
type Project struct {
	classes     map[string]NetClass
	order       []string
	assignments map[string]string
	patterns    []compiledPattern
}

// ParseFile reads a .kicad_pro file
func ParseFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	return Parse(data)
}

// Parse decodes .kicad_pro JSON
func Parse(data []byte) (*Project, error) {
	var pf projectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}

	p := &Project{
		classes:     make(map[string]NetClass),
		assignments: make(map[string]string),
	}

	for _, c := range pf.NetSettings.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("net class without a name")
		}
		p.classes[c.Name] = c
		p.order = append(p.order, c.Name)
		for _, net := range c.Nets {
			p.assignments[net] = c.Name
		}
	}

	// KiCad 7 stores a string per net, KiCad 8 may store a list
	for net, raw := range pf.NetSettings.Assignments {
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			p.assignments[net] = one
			continue
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, fmt.Errorf("net %q: invalid netclass assignment: %w", net, err)
		}
		if len(many) > 0 {
			p.assignments[net] = many[0]
		}
	}

	for _, pat := range pf.NetSettings.Patterns {
		re, err := Wildcard(pat.Pattern)
		if err != nil {
			return nil, fmt.Errorf("netclass pattern %q: %w", pat.Pattern, err)
		}
		p.patterns = append(p.patterns, compiledPattern{class: pat.Class, re: re})
	}

	return p, nil
}

// NetClassOf returns the class name of a net: explicit assignment first,
// then the first matching pattern, then DefaultClass.
func (p *Project) NetClassOf(net string) string {
	if p == nil {
		return DefaultClass
	}
	if c, ok := p.assignments[net]; ok {
		return c
	}
	for _, pat := range p.patterns {
		if pat.re.MatchString(net) {
			return pat.class
		}
	}
	return DefaultClass
}

// Class returns the named class
func (p *Project) Class(name string) (NetClass, bool) {
	if p == nil {
		return NetClass{}, false
	}
	c, ok := p.classes[name]
	return c, ok
}

// ClassOf returns the class a net belongs to
func (p *Project) ClassOf(net string) (NetClass, bool) {
	return p.Class(p.NetClassOf(net))
}

// Classes returns all classes in file order
func (p *Project) Classes() []NetClass {
	if p == nil {
		return nil
	}
	out := make([]NetClass, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.classes[name])
	}
	return out
}

// Wildcard compiles a KiCad net pattern, where * and ? are wildcards,
// into an anchored regexp
func Wildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// MatchWildcard reports whether s matches a KiCad wildcard pattern
func MatchWildcard(pattern, s string) bool {
	re, err := Wildcard(pattern)
	return err == nil && re.MatchString(s)
}
