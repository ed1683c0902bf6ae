package analysis

import (
	"fmt"

	"github.com/viant/parsly"
	"github.com/viant/toolbox"
)

// Evaluate computes the value of an arithmetic expression supporting
// addition, subtraction, multiplication, division and parentheses, with the
// usual precedence.
func Evaluate(expression string) (float64, error) {
	cursor := parsly.NewCursor("", []byte(expression), 0)
	value, err := parseExpression(cursor)
	if err != nil {
		return 0, err
	}
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return 0, fmt.Errorf("unexpected input at %v: %s", cursor.Pos, expression[cursor.Pos:])
	}
	return value, nil
}

func parseExpression(cursor *parsly.Cursor) (float64, error) {
	left, err := parseTerm(cursor)
	if err != nil {
		return 0, err
	}
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, plusToken, minusToken)
		switch matched.Code {
		case plusToken.Code:
			right, err := parseTerm(cursor)
			if err != nil {
				return 0, err
			}
			left += right
		case minusToken.Code:
			right, err := parseTerm(cursor)
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func parseTerm(cursor *parsly.Cursor) (float64, error) {
	left, err := parseFactor(cursor)
	if err != nil {
		return 0, err
	}
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, timesToken, divideToken)
		switch matched.Code {
		case timesToken.Code:
			right, err := parseFactor(cursor)
			if err != nil {
				return 0, err
			}
			left *= right
		case divideToken.Code:
			right, err := parseFactor(cursor)
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func parseFactor(cursor *parsly.Cursor) (float64, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, numberToken, openParenToken, minusToken)
	switch matched.Code {
	case numberToken.Code:
		return toolbox.AsFloat(matched.Text(cursor)), nil
	case openParenToken.Code:
		value, err := parseExpression(cursor)
		if err != nil {
			return 0, err
		}
		matched = cursor.MatchAfterOptional(whitespaceToken, closeParenToken)
		if matched.Code != closeParenToken.Code {
			return 0, cursor.NewError(closeParenToken)
		}
		return value, nil
	case minusToken.Code:
		value, err := parseFactor(cursor)
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return 0, cursor.NewError(numberToken)
}
