package units

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// LengthLexer tokenizes length expressions such as "2.54mm", "8 mil" or "10,20"
var LengthLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Unit", Pattern: `[a-zA-Zµ"]+`},
	{Name: "Comma", Pattern: `,`},
})
