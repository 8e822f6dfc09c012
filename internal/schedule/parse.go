// File path: internal/schedule/parse.go
package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Day-first layouts tried in order. Go's "2" and "1" verbs also accept the
// zero-padded forms, so "02/01/2006" style input is covered by the short
// layouts.
var dateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2/1/06",
	"2-1-06",
}

// ParseDate converts a heterogeneous cell value into a calendar date.
// Day-first ambiguous formats are accepted; anything unparsable is absent,
// never an error.
func ParseDate(v interface{}) *Date {
	switch val := v.(type) {
	case nil:
		return nil
	case Date:
		d := val
		return &d
	case *Date:
		if val == nil {
			return nil
		}
		d := *val
		return &d
	case time.Time:
		if val.IsZero() {
			return nil
		}
		d := DateOf(val)
		return &d
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOf(t)
			return &d
		}
	}
	return nil
}

// ParseFloat is the tolerant numeric parser: currency symbols and stray text
// are stripped, comma/dot locale differences are resolved, and anything left
// unparsable is absent (not zero).
func ParseFloat(v interface{}) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) {
			return nil
		}
		f := val
		return &f
	case *float64:
		if val == nil {
			return nil
		}
		f := *val
		return &f
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	}
	s := cleanNumber(stringify(v))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParsePercent parses like ParseFloat and then normalizes scale: values <= 1
// are taken as fractions and multiplied by 100, larger values are assumed to
// already be in 0-100 form. A literal "0.5%" is therefore read as 50 -- a
// known ambiguity of the rule, kept deliberately until a product decision
// changes it.
func ParsePercent(v interface{}) *float64 {
	f := ParseFloat(v)
	if f == nil {
		return nil
	}
	val := *f
	if val <= 1.0 {
		val *= 100.0
	}
	return &val
}

// cleanNumber drops every rune that is not a digit, minus, comma or dot,
// then resolves separators. With both present the one seen last is the
// decimal point and the other a thousands separator, so "1.234,56" and
// "1,234.56" both read as 1234.56; a lone comma is a decimal point.
func cleanNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '-' || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case lastComma >= 0 && lastDot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	return cleaned
}

// SplitPredecessors tokenizes a free-text predecessor expression on commas,
// semicolons and whitespace, preserving order of appearance. A bare numeric
// cell is one identifier, not a digit sequence.
func SplitPredecessors(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case float64:
		if math.IsNaN(val) {
			return nil
		}
		if val == math.Trunc(val) {
			return []string{strconv.FormatInt(int64(val), 10)}
		}
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(val)}
	}
	text := strings.TrimSpace(stringify(v))
	if text == "" {
		return nil
	}
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if trimmed := strings.TrimSpace(tok); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// stringify renders an arbitrary cell value as text for the tolerant parsers.
// Whole floats (the common spreadsheet/JSON number case) drop their decimal
// point so IDs like 12.0 read back as "12".
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if math.IsNaN(val) {
			return ""
		}
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return stringify(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case Date:
		return val.String()
	case *Date:
		if val == nil {
			return ""
		}
		return val.String()
	case Status:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02")
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
