package units

// Length is a number with an optional unit suffix
type Length struct {
	Value string `parser:"@Number"`
	Unit  string `parser:"@Unit?"`
}

// LengthList is a comma separated list of lengths, used for points and rectangles
type LengthList struct {
	Items []*Length `parser:"@@ ( Comma @@ )*"`
}
