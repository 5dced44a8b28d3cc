package rules

import (
	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/project"
)

// RuleSet is a clearance.Resolver layering net class clearances and custom
// rules over a base policy. Later rules override earlier ones.
type RuleSet struct {
	base    clearance.Policy
	rules   []Rule
	names   map[copper.NetID]string
	classes map[copper.NetID]string
	class   map[string]int64
	max     int64
}

// New builds a RuleSet. names maps board net codes to net names; proj may
// be nil when no project file is available.
func New(base clearance.Policy, names map[copper.NetID]string, proj *project.Project, rules []Rule) (*RuleSet, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}

	rs := &RuleSet{
		base:    base,
		rules:   rules,
		names:   names,
		classes: make(map[copper.NetID]string, len(names)),
		class:   make(map[string]int64),
		max:     base.MaxClearance(),
	}

	for _, c := range proj.Classes() {
		rs.class[c.Name] = c.ClearanceNM()
		rs.max = max(rs.max, c.ClearanceNM())
	}
	for id, name := range names {
		rs.classes[id] = proj.NetClassOf(name)
	}
	for _, r := range rules {
		if r.Clearance != nil {
			rs.max = max(rs.max, *r.Clearance)
		}
		if r.ViaClearance != nil {
			rs.max = max(rs.max, *r.ViaClearance)
		}
	}
	return rs, nil
}

func (rs *RuleSet) item(net copper.NetID, kind copper.Kind) Item {
	class, ok := rs.classes[net]
	if !ok {
		class = project.DefaultClass
	}
	return Item{NetName: rs.names[net], NetClass: class, Type: kind.String()}
}

// Resolve implements clearance.Resolver
func (rs *RuleSet) Resolve(candidate copper.NetID, obj copper.Object) clearance.Policy {
	p := rs.base

	a := rs.item(candidate, copper.Via)
	b := rs.item(obj.Net, obj.Kind)

	if candidate != obj.Net {
		p.MinClearance = max(p.MinClearance, rs.class[a.NetClass], rs.class[b.NetClass])
	}

	for _, r := range rs.rules {
		if !r.Applies(a, b) {
			continue
		}
		if r.Clearance != nil {
			p.MinClearance = *r.Clearance
		}
		if r.ViaClearance != nil {
			p.ViaToViaClearance = *r.ViaClearance
		}
	}
	return p
}

// MaxClearance implements clearance.Resolver
func (rs *RuleSet) MaxClearance() int64 {
	return rs.max
}

// Rules returns the custom rules in evaluation order
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}
