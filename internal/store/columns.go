package store

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-user-cache/internal/user"
)

// sortColumns maps each sortable response field to its column.
var sortColumns = func() map[string]string {
	cols := make(map[string]string, len(user.SortFields))
	for _, field := range user.SortFields {
		cols[field] = columnName(field)
	}
	return cols
}()

// sortColumn resolves a response field against the whitelist.
func sortColumn(field string) (string, error) {
	col, ok := sortColumns[field]
	if !ok {
		return "", fmt.Errorf("store: unsortable field %q", field)
	}
	return col, nil
}

// columnName converts a camelCase field name to its snake_case column.
// Anything other than letters and digits becomes a single separator.
func columnName(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	sep := false
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 && !sep {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			sep = false
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			sep = false
		default:
			if b.Len() > 0 && !sep {
				b.WriteByte('_')
				sep = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
