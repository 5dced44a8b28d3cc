package rules

import (
	"errors"
	"testing"
)

func TestParseCondition(t *testing.T) {
	gndVia := Item{NetName: "GND", NetClass: "Default", Type: "via"}
	vccPad := Item{NetName: "VCC", NetClass: "HV", Type: "pad"}
	sdaTrack := Item{NetName: "/SDA", NetClass: "Default", Type: "track"}

	tests := []struct {
		name string
		expr string
		a, b Item
		want bool
	}{
		{"net name", "A.NetName == 'GND'", gndVia, vccPad, true},
		{"net name other side", "B.NetName == 'GND'", gndVia, vccPad, false},
		{"not equal", "B.NetName != 'GND'", gndVia, vccPad, true},
		{"class", `B.NetClass == "HV"`, gndVia, vccPad, true},
		{"type ignores case", "B.Type == 'Pad'", gndVia, vccPad, true},
		{"wildcard", "B.NetName == '/S*'", gndVia, sdaTrack, true},
		{"single char wildcard", "B.NetName == '/SD?'", gndVia, sdaTrack, true},
		{"wildcard anchored", "B.NetName == 'S*'", gndVia, sdaTrack, false},
		{"and", "A.NetName == 'GND' && B.Type == 'Track'", gndVia, sdaTrack, true},
		{"and false", "A.NetName == 'GND' && B.Type == 'Pad'", gndVia, sdaTrack, false},
		{"or", "B.Type == 'Pad' || B.Type == 'Track'", gndVia, sdaTrack, true},
		{"and binds tighter", "A.NetName == 'GND' || A.NetName == 'X' && B.Type == 'Pad'", gndVia, sdaTrack, true},
		{"parentheses", "(A.NetName == 'GND' || A.NetName == 'X') && B.Type == 'Pad'", gndVia, sdaTrack, false},
		{"negation", "!(B.Type == 'Pad')", gndVia, sdaTrack, true},
		{"negated comparison", "!B.NetClass == 'Default'", gndVia, sdaTrack, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseCondition(tt.expr)
			if err != nil {
				t.Fatalf("ParseCondition(%q) error = %v", tt.expr, err)
			}
			if got := m(tt.a, tt.b); got != tt.want {
				t.Errorf("%q = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseConditionErrors(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		unsupported bool
	}{
		{"unknown property", "A.Layer == 'F.Cu'", true},
		{"unknown object", "C.NetName == 'GND'", true},
		{"missing value", "A.NetName ==", false},
		{"unbalanced", "(A.NetName == 'GND'", false},
		{"function call", "A.intersectsCourtyard('U1')", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCondition(tt.expr)
			if err == nil {
				t.Fatalf("ParseCondition(%q) expected error", tt.expr)
			}
			if got := errors.Is(err, ErrUnsupportedCondition); got != tt.unsupported {
				t.Errorf("errors.Is(ErrUnsupportedCondition) = %v, want %v (err %v)", got, tt.unsupported, err)
			}
		})
	}
}
