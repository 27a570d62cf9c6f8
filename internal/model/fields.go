package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is the caller-supplied, schema-less rendering input.
// Accessors never fail: absent or malformed values yield the supplied default.
type Fields map[string]any

// String returns the value under key as text.
// Strings are returned verbatim, numbers and booleans are formatted,
// nil and nested structures fall back to def.
func (f Fields) String(key, def string) string {
	v, ok := f[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	case float32:
		return decimal.NewFromFloat32(t).String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// Table reads a delimited value: rows are separated by ';', cells by '|'.
// There is no escaping. Only a string value is accepted; anything else yields def.
func (f Fields) Table(key, def string) [][]string {
	raw := def
	if v, ok := f[key].(string); ok {
		raw = v
	}
	return ParseTable(raw)
}

// ParseTable splits the ';'/'|' micro-format. Trailing empty segments are
// dropped at both levels; an empty input is a single row holding one empty cell.
func ParseTable(s string) [][]string {
	lines := splitDropTrailing(s, ";")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, splitDropTrailing(line, "|"))
	}
	return rows
}

func splitDropTrailing(s, sep string) []string {
	if s == "" {
		return []string{""}
	}
	parts := strings.Split(s, sep)
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}
