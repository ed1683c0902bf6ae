package analysis

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	numberCode
	plusCode
	minusCode
	timesCode
	divideCode
	openParenCode
	closeParenCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	numberToken     = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	plusToken       = parsly.NewToken(plusCode, "+", matcher.NewByte('+'))
	minusToken      = parsly.NewToken(minusCode, "-", matcher.NewByte('-'))
	timesToken      = parsly.NewToken(timesCode, "*", matcher.NewByte('*'))
	divideToken     = parsly.NewToken(divideCode, "/", matcher.NewByte('/'))
	openParenToken  = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
)

func newNumberMatcher() parsly.Matcher {
	return &numberMatcher{}
}

// numberMatcher matches decimal literals with an optional fraction
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	hasFraction := false
	for i := pos; i < size; i++ {
		c := input[i]
		if c >= '0' && c <= '9' {
			matched++
			continue
		}
		if c == '.' && !hasFraction && matched > 0 {
			hasFraction = true
			matched++
			continue
		}
		break
	}
	return matched
}
