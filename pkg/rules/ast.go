package rules

// Condition is a disjunction of conjunctions
type Condition struct {
	Or []*AndExpr `parser:"@@ ( Or @@ )*"`
}

// AndExpr is a conjunction of terms
type AndExpr struct {
	And []*Term `parser:"@@ ( And @@ )*"`
}

// Term is an optionally negated operand
type Term struct {
	Not     bool     `parser:"@Not?"`
	Operand *Operand `parser:"@@"`
}

// Operand is either a parenthesised condition or a comparison
type Operand struct {
	Sub *Condition  `parser:"  LParen @@ RParen"`
	Cmp *Comparison `parser:"| @@"`
}

// Comparison tests one property of A or B against a string literal
type Comparison struct {
	Object   string `parser:"@Ident Dot"`
	Property string `parser:"@Ident"`
	Op       string `parser:"@Op"`
	Value    string `parser:"@String"`
}
