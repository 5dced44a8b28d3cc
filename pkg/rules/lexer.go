package rules

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ConditionLexer tokenises the condition strings of .kicad_dru rules,
// e.g. "A.NetClass == 'HV' && B.Type != 'Pad'"
var ConditionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	{Name: "Or", Pattern: `\|\|`},
	{Name: "And", Pattern: `&&`},
	{Name: "Op", Pattern: `==|!=`},
	{Name: "Not", Pattern: `!`},

	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Dot", Pattern: `\.`},

	{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
})
