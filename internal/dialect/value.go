package dialect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindJSON
	KindExpr
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	case KindExpr:
		return "expr"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a default or row value classified once at ingestion. Text holds
// the canonical textual form; for KindText it is the unquoted string.
type Value struct {
	Kind Kind
	Text string
}

func Null() Value { return Value{Kind: KindNull} }
func Bool(b bool) Value { return Value{Kind: KindBool, Text: strconv.FormatBool(b)} }
func Number(n string) Value { return Value{Kind: KindNumber, Text: n} }
func Text(s string) Value { return Value{Kind: KindText, Text: s} }
func Expr(s string) Value { return Value{Kind: KindExpr, Text: s} }
func JSON(raw string) Value { return Value{Kind: KindJSON, Text: raw} }
func (v Value) IsNull() bool { return v.Kind == KindNull }
func (v Value) String() string { return Literal(v) }

// castLiteral matches an already-quoted literal followed by a type cast,
// e.g. 'active'::text, as reported by catalog column defaults.
var castLiteral = regexp.MustCompile(`^'.*'::[A-Za-z_][A-Za-z0-9_ \[\]."]*$`)

// ParseDefault classifies a raw column default token. The checks run in a
// fixed priority order; the first match wins.
func ParseDefault(raw string) Value {
	t := strings.TrimSpace(raw)

	switch {
	case t == "0":
		return Number(t)
	case t == "false":
		return Value{Kind: KindBool, Text: t}
	case strings.Contains(t, "(") && strings.Contains(t, ")"):
		return Expr(t)
	case isQuoted(t), castLiteral.MatchString(t):
		return Expr(t)
	case isNumeric(t):
		return Number(t)
	case strings.EqualFold(t, "true"), strings.EqualFold(t, "false"):
		return Value{Kind: KindBool, Text: t}
	case strings.EqualFold(t, "NULL"):
		return Value{Kind: KindNull, Text: t}
	default:
		return Text(t)
	}
}

// FormatDefault renders a raw default token as it appears after DEFAULT.
func FormatDefault(raw string) string {
	return Literal(ParseDefault(raw))
}

// ValueFromJSON classifies one JSON-encoded row cell.
func ValueFromJSON(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Null(), nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("invalid string value: %w", err)
		}
		return Text(s), nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Value{}, fmt.Errorf("invalid nested value: %w", err)
		}
		return JSON(buf.String()), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("invalid boolean value: %w", err)
		}
		return Bool(b), nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, fmt.Errorf("invalid number value: %w", err)
		}
		return Number(n.String()), nil
	}
}

// Literal renders a Value as SQL text. Strings and nested JSON are single
// quoted with embedded quotes doubled; everything else is emitted as is.
func Literal(v Value) string {
	switch v.Kind {
	case KindNull:
		if v.Text != "" {
			return v.Text
		}
		return "NULL"
	case KindText, KindJSON:
		return QuoteLiteral(v.Text)
	default:
		return v.Text
	}
}

// QuoteLiteral wraps s in single quotes, doubling any embedded quote.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isQuoted(t string) bool {
	if len(t) < 2 {
		return false
	}
	return (t[0] == '\'' && t[len(t)-1] == '\'') || (t[0] == '"' && t[len(t)-1] == '"')
}

func isNumeric(t string) bool {
	// decimal only; hex and Go digit separators are not SQL numeric literals
	if t == "" || !strings.ContainsAny(t, "0123456789") || strings.ContainsAny(t, "xXpP_") {
		return false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
