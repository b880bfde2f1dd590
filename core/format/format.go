// Package format - Human-readable rendering of metric values
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/internal/errors"
)

// Kind is the numeric kind a value is displayed as
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindPercent
)

// String returns the canonical kind label
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind label
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "percent", "percentage":
		return KindPercent, nil
	default:
		return 0, errors.FormatKind(s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindInt || k > KindPercent {
		return nil, errors.FormatKind(k.String())
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

var hundred = decimal.NewFromInt(100)

// Value formats v with thousands separators. Percent values are multiplied by
// 100 and suffixed with "%"; int values are always rounded to whole numbers.
func Value(v decimal.Decimal, kind Kind, digits int) (string, error) {
	if digits < 0 {
		digits = 0
	}
	suffix := ""
	switch kind {
	case KindInt:
		digits = 0
	case KindFloat:
	case KindPercent:
		v = v.Mul(hundred)
		suffix = "%"
	default:
		return "", errors.FormatKind(kind.String())
	}

	return groupThousands(v.StringFixed(int32(digits))) + suffix, nil
}

// groupThousands inserts "," every three digits of the integer part of a
// plain decimal string such as "-1234567.89".
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var sb strings.Builder
	sb.Grow(len(sign) + len(intPart) + len(intPart)/3 + len(frac))
	sb.WriteString(sign)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	sb.WriteString(frac)
	return sb.String()
}

// HumanName turns a metric name into its display form
func HumanName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
