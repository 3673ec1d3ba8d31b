// Package hidden resolves conditional content markers (hidden paragraphs,
// hidden and conditional text) embedded in ODF content before rendering.
package hidden

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
)

// DefaultPrefix is engine tag LibreOffice puts in front of field conditions.
const DefaultPrefix = "ooow:"

// ExpressionError is returned when condition could not be compiled or does
// not produce boolean value.
type ExpressionError struct {
	Condition string
	Err       error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("bad condition %q: %v", e.Condition, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

var errNotBoolean = errors.New("condition does not evaluate to boolean")

// StripPrefix removes every occurrence of prefix from condition and reports
// whether prefix was present.
func StripPrefix(condition, prefix string) (string, bool) {
	if len(prefix) == 0 || !strings.Contains(condition, prefix) {
		return condition, false
	}
	return strings.ReplaceAll(condition, prefix, ""), true
}

// Evaluate evaluates condition (with engine prefix already stripped) as
// boolean expression without any variable bindings.
func Evaluate(condition string) (bool, error) {
	code := normalize(condition)
	if len(strings.TrimSpace(code)) == 0 {
		return false, &ExpressionError{Condition: condition, Err: errors.New("empty condition")}
	}

	program, err := expr.Compile(code, expr.AsBool())
	if err != nil {
		return false, &ExpressionError{Condition: condition, Err: err}
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return false, &ExpressionError{Condition: condition, Err: err}
	}
	verdict, ok := out.(bool)
	if !ok {
		return false, &ExpressionError{Condition: condition, Err: errNotBoolean}
	}
	return verdict, nil
}

// LibreOffice word operators.
var wordOperators = map[string]string{
	"EQ":    "==",
	"NEQ":   "!=",
	"LT":    "<",
	"LEQ":   "<=",
	"GT":    ">",
	"GEQ":   ">=",
	"AND":   "&&",
	"OR":    "||",
	"NOT":   "!",
	"XOR":   "!=",
	"TRUE":  "true",
	"FALSE": "false",
}

// normalize rewrites LibreOffice condition vocabulary into expression
// language syntax. String literals are copied untouched.
func normalize(condition string) string {
	var (
		b     strings.Builder
		runes = []rune(condition)
	)
	b.Grow(len(condition) + 8)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(runes))
			b.WriteString(string(runes[i:j]))
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			if op, ok := wordOperators[strings.ToUpper(word)]; ok {
				b.WriteByte(' ')
				b.WriteString(op)
				b.WriteByte(' ')
			} else {
				b.WriteString(word)
			}
			i = j

		case r == '<' && i+1 < len(runes) && runes[i+1] == '>':
			b.WriteString("!=")
			i += 2

		case r == '=':
			// single "=" is equality, "==" stays as is
			prev := rune(0)
			if i > 0 {
				prev = runes[i-1]
			}
			if i+1 < len(runes) && runes[i+1] == '=' {
				b.WriteString("==")
				i += 2
				continue
			}
			if strings.ContainsRune("!<>", prev) {
				b.WriteRune(r)
			} else {
				b.WriteString("==")
			}
			i++

		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String()
}
