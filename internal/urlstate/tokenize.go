package urlstate

import "strings"

// Token is one top-level entry of a layers parameter. Grouped tokens have
// the form name(content).
type Token struct {
	Name    string
	Content string
	Grouped bool
}

// Tokenize splits raw on top-level commas. Commas inside parentheses belong
// to the enclosing token. Empty entries are dropped, an unclosed group runs
// to the end of the input and stray closing parentheses are ignored.
func Tokenize(raw string) []Token {
	var tokens []Token
	depth, start := 0, 0
	emit := func(part string) {
		if t, ok := parseToken(part); ok {
			tokens = append(tokens, t)
		}
	}
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				emit(raw[start:i])
				start = i + 1
			}
		}
	}
	emit(raw[start:])
	return tokens
}

func parseToken(part string) (Token, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return Token{}, false
	}
	name, rest, grouped := strings.Cut(part, "(")
	if !grouped {
		return Token{Name: part}, true
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ")")
	return Token{Name: strings.TrimSpace(name), Content: rest, Grouped: true}, true
}

// String renders the token back into its URL form.
func (t Token) String() string {
	if !t.Grouped {
		return t.Name
	}
	return t.Name + "(" + t.Content + ")"
}
