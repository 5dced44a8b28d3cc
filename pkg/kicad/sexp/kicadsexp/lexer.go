package kicadsexp

import (
	"bufio"
	"fmt"
	"io"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenSymbol:
		return "symbol"
	case TokenString:
		return "string"
	default:
		return "unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int // 1-based line where the token starts
}

// Lexer tokenizes S-expressions from an io.Reader
type Lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReaderSize(r, 64*1024),
		line:   1,
	}
}

// NextToken reads the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipSpace(); err != nil {
		if err == io.EOF {
			return Token{Type: TokenEOF, Line: l.line}, nil
		}
		return Token{}, err
	}

	ch, err := l.peek()
	if err != nil {
		if err == io.EOF {
			return Token{Type: TokenEOF, Line: l.line}, nil
		}
		return Token{}, err
	}

	line := l.line
	switch ch {
	case '(':
		l.read()
		return Token{Type: TokenLeftParen, Value: "(", Line: line}, nil
	case ')':
		l.read()
		return Token{Type: TokenRightParen, Value: ")", Line: line}, nil
	case '"':
		return l.readString()
	default:
		return l.readSymbol()
	}
}

// skipSpace consumes whitespace and '#' line comments (used in .kicad_dru files)
func (l *Lexer) skipSpace() error {
	for {
		ch, err := l.peek()
		if err != nil {
			return err
		}
		switch {
		case unicode.IsSpace(ch):
			l.read()
		case ch == '#':
			for {
				c, err := l.read()
				if err != nil {
					return err
				}
				if c == '\n' {
					break
				}
			}
		default:
			return nil
		}
	}
}

func (l *Lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked = &ch
	return ch, nil
}

func (l *Lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		ch, _, err = l.reader.ReadRune()
		if err != nil {
			return 0, err
		}
	}
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

// readString reads a quoted string, resolving backslash escapes
func (l *Lexer) readString() (Token, error) {
	line := l.line
	l.read() // opening quote

	var result []rune
	for {
		ch, err := l.read()
		if err != nil {
			if err == io.EOF {
				return Token{}, fmt.Errorf("line %d: unexpected EOF in string", line)
			}
			return Token{}, err
		}

		switch ch {
		case '"':
			return Token{Type: TokenString, Value: string(result), Line: line}, nil
		case '\\':
			next, err := l.read()
			if err != nil {
				return Token{}, fmt.Errorf("line %d: unexpected EOF after backslash", l.line)
			}
			switch next {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			default:
				result = append(result, next)
			}
		default:
			result = append(result, ch)
		}
	}
}

// readSymbol reads an unquoted atom (keyword, number, layer name, ...)
func (l *Lexer) readSymbol() (Token, error) {
	line := l.line
	var result []rune
	for {
		ch, err := l.peek()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}
		l.read()
		result = append(result, ch)
	}

	if len(result) == 0 {
		return Token{}, fmt.Errorf("line %d: empty symbol", line)
	}
	return Token{Type: TokenSymbol, Value: string(result), Line: line}, nil
}
