package units

import (
	"errors"
	"testing"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{input: "2.54", want: 2540000},
		{input: "2.54mm", want: 2540000},
		{input: "0.2 mm", want: 200000},
		{input: "8mil", want: 203200},
		{input: "100 mils", want: 2540000},
		{input: "0.1in", want: 2540000},
		{input: `0.1"`, want: 2540000},
		{input: "250um", want: 250000},
		{input: "1cm", want: 10000000},
		{input: "-1.5", want: -1500000},
		{input: ".5", want: 500000},
		{input: "1e-3", want: 1000},
		{input: "12.5nm", want: 13},
		{input: "3 furlongs", wantErr: ErrUnknownUnit},
		{input: "mm", wantErr: ErrInvalidLength},
		{input: "", wantErr: ErrInvalidLength},
		{input: "1,2", wantErr: ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLength(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLength(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLength(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLength(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := ParsePoint("100, 50.8mm")
	if err != nil {
		t.Fatalf("ParsePoint() error = %v", err)
	}
	if x != 100000000 || y != 50800000 {
		t.Errorf("ParsePoint() = %d,%d", x, y)
	}

	if _, _, err := ParsePoint("1,2,3"); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("ParsePoint(1,2,3) error = %v, want ErrInvalidLength", err)
	}
}

func TestParseLengths(t *testing.T) {
	got, err := ParseLengths("0,0,10mm,400mil")
	if err != nil {
		t.Fatalf("ParseLengths() error = %v", err)
	}
	want := []int64{0, 0, 10000000, 10160000}
	if len(got) != len(want) {
		t.Fatalf("ParseLengths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseLengths()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFormatMM(t *testing.T) {
	tests := []struct {
		nm   int64
		want string
	}{
		{0, "0"},
		{1000000, "1"},
		{2540000, "2.54"},
		{-1500000, "-1.5"},
		{1, "0.000001"},
		{102540000, "102.54"},
		{-250000, "-0.25"},
	}

	for _, tt := range tests {
		if got := FormatMM(tt.nm); got != tt.want {
			t.Errorf("FormatMM(%d) = %q, want %q", tt.nm, got, tt.want)
		}
	}
}
