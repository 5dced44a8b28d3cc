// Package units converts user supplied lengths into KiCad's internal
// nanometre unit and formats nanometres back into millimetres.
package units

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
)

// Nanometres per unit
const (
	Nanometer  int64 = 1
	Micrometer int64 = 1000
	Mil        int64 = 25400
	Millimeter int64 = 1000000
	Centimeter int64 = 10000000
	Inch       int64 = 25400000
)

// ErrUnknownUnit is returned for unit suffixes that are not lengths
var ErrUnknownUnit = errors.New("unknown length unit")

// ErrInvalidLength is returned when the input is not a length expression
var ErrInvalidLength = errors.New("invalid length")

var unitTable = map[string]int64{
	"":            Millimeter,
	"mm":          Millimeter,
	"millimeter":  Millimeter,
	"millimeters": Millimeter,
	"cm":          Centimeter,
	"um":          Micrometer,
	"µm":          Micrometer,
	"micron":      Micrometer,
	"microns":     Micrometer,
	"nm":          Nanometer,
	"mil":         Mil,
	"mils":        Mil,
	"thou":        Mil,
	"in":          Inch,
	"inch":        Inch,
	"inches":      Inch,
	`"`:           Inch,
}

var (
	buildOnce  sync.Once
	listParser *participle.Parser[LengthList]
	buildErr   error
)

func parser() (*participle.Parser[LengthList], error) {
	buildOnce.Do(func() {
		listParser, buildErr = participle.Build[LengthList](
			participle.Lexer(LengthLexer),
			participle.Elide("Whitespace"),
		)
		if buildErr != nil {
			buildErr = fmt.Errorf("failed to build parser: %w", buildErr)
		}
	})
	return listParser, buildErr
}

// ParseLength parses a single length. A bare number is millimetres.
func ParseLength(s string) (int64, error) {
	values, err := ParseLengths(s)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("%w: %q: expected one value, got %d", ErrInvalidLength, s, len(values))
	}
	return values[0], nil
}

// ParseLengths parses a comma separated list of lengths
func ParseLengths(s string) ([]int64, error) {
	p, err := parser()
	if err != nil {
		return nil, err
	}
	list, err := p.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLength, s, err)
	}

	out := make([]int64, 0, len(list.Items))
	for _, item := range list.Items {
		nm, err := item.Nanometers()
		if err != nil {
			return nil, err
		}
		out = append(out, nm)
	}
	return out, nil
}

// ParsePoint parses "x,y" into nanometres
func ParsePoint(s string) (x, y int64, err error) {
	values, err := ParseLengths(s)
	if err != nil {
		return 0, 0, err
	}
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("%w: %q: expected x,y", ErrInvalidLength, s)
	}
	return values[0], values[1], nil
}

// Nanometers converts the parsed length, rounding half away from zero
func (l *Length) Nanometers() (int64, error) {
	factor, ok := unitTable[strings.ToLower(l.Unit)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, l.Unit)
	}
	r, ok := new(big.Rat).SetString(l.Value)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, l.Value)
	}
	r.Mul(r, new(big.Rat).SetInt64(factor))
	f, _ := r.Float64()
	if math.Abs(f) > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: %s%s out of range", ErrInvalidLength, l.Value, l.Unit)
	}
	return int64(math.Round(f)), nil
}

// FormatMM renders nanometres as a millimetre decimal without trailing zeros,
// the way KiCad writes coordinates: 2540000 -> "2.54", 1000000 -> "1".
func FormatMM(nm int64) string {
	sign := ""
	if nm < 0 {
		sign = "-"
		nm = -nm
	}
	whole, frac := nm/Millimeter, nm%Millimeter
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	return strings.TrimRight(fmt.Sprintf("%s%d.%06d", sign, whole, frac), "0")
}
