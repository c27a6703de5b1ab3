// Package syntax parses the subset of Rust needed to read model declarations:
// attributes, visibility, struct items with named fields, and type expressions.
// Everything else at the top level is skipped as a balanced token run.
package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Lifetime
	String
	Number
	Char
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case Lifetime:
		return "lifetime"
	case String:
		return "string"
	case Number:
		return "number"
	case Char:
		return "char"
	case Punct:
		return "punctuation"
	}
	return "unknown"
}

// Token is a lexed unit with its 1-based source position.
type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// Is reports whether t is the punctuation or identifier text s.
func (t Token) Is(s string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == s
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
	toks []Token
	errs []error
}

// Lex splits src into tokens. Comments and whitespace are dropped.
// Lexing never stops early: unterminated literals are reported and consumed.
func Lex(src string) ([]Token, []error) {
	lx := &lexer{src: src, line: 1, col: 1}
	lx.run()
	return lx.toks, lx.errs
}

func (lx *lexer) peekRune(off int) rune {
	p := lx.pos
	for i := 0; i < off; i++ {
		if p >= len(lx.src) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(lx.src[p:])
		p += w
	}
	if p >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[p:])
	return r
}

func (lx *lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) emit(kind Kind, text string, line, col int) {
	lx.toks = append(lx.toks, Token{Kind: kind, Text: text, Line: line, Col: col})
}

func (lx *lexer) errorf(line, col int, format string, args ...interface{}) {
	lx.errs = append(lx.errs, fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...)))
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		r := lx.peekRune(0)
		line, col := lx.line, lx.col

		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '/' && lx.peekRune(1) == '/':
			for lx.pos < len(lx.src) && lx.peekRune(0) != '\n' {
				lx.advance()
			}
		case r == '/' && lx.peekRune(1) == '*':
			lx.blockComment(line, col)
		case r == 'r' && (lx.peekRune(1) == '"' || (lx.peekRune(1) == '#' && (lx.peekRune(2) == '"' || lx.peekRune(2) == '#'))):
			lx.rawString(line, col)
		case r == 'b' && lx.peekRune(1) == '"':
			lx.advance()
			lx.quoted(line, col)
		case r == '_' || unicode.IsLetter(r):
			start := lx.pos
			for lx.pos < len(lx.src) {
				c := lx.peekRune(0)
				if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
					break
				}
				lx.advance()
			}
			lx.emit(Ident, lx.src[start:lx.pos], line, col)
		case unicode.IsDigit(r):
			start := lx.pos
			for lx.pos < len(lx.src) {
				c := lx.peekRune(0)
				if c != '_' && c != '.' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
					break
				}
				// 1..2 is a range, not a float
				if c == '.' && lx.peekRune(1) == '.' {
					break
				}
				lx.advance()
			}
			lx.emit(Number, lx.src[start:lx.pos], line, col)
		case r == '"':
			lx.quoted(line, col)
		case r == '\'':
			lx.quoteOrLifetime(line, col)
		case r == '-' && lx.peekRune(1) == '>':
			// One token, so the '>' never closes a generic list
			lx.advance()
			lx.advance()
			lx.emit(Punct, "->", line, col)
		default:
			lx.advance()
			lx.emit(Punct, string(r), line, col)
		}
	}
	lx.emit(EOF, "", lx.line, lx.col)
}

func (lx *lexer) blockComment(line, col int) {
	lx.advance()
	lx.advance()
	depth := 1
	for lx.pos < len(lx.src) && depth > 0 {
		switch {
		case lx.peekRune(0) == '/' && lx.peekRune(1) == '*':
			lx.advance()
			lx.advance()
			depth++
		case lx.peekRune(0) == '*' && lx.peekRune(1) == '/':
			lx.advance()
			lx.advance()
			depth--
		default:
			lx.advance()
		}
	}
	if depth > 0 {
		lx.errorf(line, col, "unterminated block comment")
	}
}

// quoted lexes a "..." literal; the token text is the unescaped content.
func (lx *lexer) quoted(line, col int) {
	lx.advance()
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.advance()
		switch c {
		case '"':
			lx.emit(String, sb.String(), line, col)
			return
		case '\\':
			if lx.pos >= len(lx.src) {
				break
			}
			e := lx.advance()
			switch e {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			default:
				sb.WriteRune(e)
			}
		default:
			sb.WriteRune(c)
		}
	}
	lx.errorf(line, col, "unterminated string literal")
	lx.emit(String, sb.String(), line, col)
}

func (lx *lexer) rawString(line, col int) {
	lx.advance() // r
	hashes := 0
	for lx.peekRune(0) == '#' {
		lx.advance()
		hashes++
	}
	if lx.peekRune(0) != '"' {
		lx.errorf(line, col, "malformed raw string")
		return
	}
	lx.advance()
	closing := "\"" + strings.Repeat("#", hashes)
	end := strings.Index(lx.src[lx.pos:], closing)
	if end < 0 {
		lx.errorf(line, col, "unterminated raw string")
		text := lx.src[lx.pos:]
		for lx.pos < len(lx.src) {
			lx.advance()
		}
		lx.emit(String, text, line, col)
		return
	}
	text := lx.src[lx.pos : lx.pos+end]
	for i := 0; i < end+len(closing); {
		_, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
		lx.advance()
		i += w
	}
	lx.emit(String, text, line, col)
}

// quoteOrLifetime distinguishes 'a (lifetime) from 'a' and '\n' (char literals).
func (lx *lexer) quoteOrLifetime(line, col int) {
	if lx.peekRune(1) == '\\' {
		lx.advance()
		start := lx.pos
		for lx.pos < len(lx.src) && lx.peekRune(0) != '\'' {
			lx.advance()
		}
		text := lx.src[start:lx.pos]
		if lx.pos < len(lx.src) {
			lx.advance()
		}
		lx.emit(Char, text, line, col)
		return
	}
	if lx.peekRune(2) == '\'' {
		lx.advance()
		c := lx.advance()
		lx.advance()
		lx.emit(Char, string(c), line, col)
		return
	}
	lx.advance()
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.peekRune(0)
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		lx.advance()
	}
	lx.emit(Lifetime, "'"+lx.src[start:lx.pos], line, col)
}
