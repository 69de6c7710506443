// Package arabic converts Arabic-Indic digit glyphs to their ASCII
// equivalents. The registry renders committee numbers with U+0660–U+0669.
package arabic

import "strings"

var digits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// NormalizeDigits replaces every Arabic-Indic digit glyph in s with the
// corresponding ASCII digit. All other runes pass through unchanged.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := digits[r]; ok {
			return d
		}
		return r
	}, s)
}
