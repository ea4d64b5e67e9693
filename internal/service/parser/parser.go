package parser

import "regexp"

// Captures holds the named groups of a matching pattern. Groups that did not
// participate in the match are present with an empty value.
type Captures map[string]string

// Intent maps one or more patterns to a constructor. Build reports ok=false
// when the captures are unusable, in which case scanning continues.
type Intent[T any] struct {
	Patterns []*regexp.Regexp
	Build    func(Captures) (T, bool)
}

// Parser classifies text against an ordered list of intents.
type Parser[T any] struct {
	intents  []Intent[T]
	fallback T
}

// New returns a parser trying intents in the given order.
func New[T any](fallback T, intents ...Intent[T]) *Parser[T] {
	return &Parser[T]{
		intents:  append([]Intent[T](nil), intents...),
		fallback: fallback,
	}
}

// Pattern compiles expr as a case-insensitive pattern anchored at both ends.
func Pattern(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + expr + `)$`)
}

// Parse returns the value built by the first intent whose pattern matches and
// whose constructor accepts the captures, or the fallback.
func (p *Parser[T]) Parse(text string) T {
	for _, it := range p.intents {
		for _, re := range it.Patterns {
			match := re.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			if value, ok := it.Build(captures(re, match)); ok {
				return value
			}
		}
	}
	return p.fallback
}

func captures(re *regexp.Regexp, match []string) Captures {
	out := make(Captures)
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		out[name] = match[i]
	}
	return out
}
