package utils

import "strings"

// GenerateSKU builds a pharmacy SKU: PH-<CAT2>-<NAME3>-<RAND4>.
// The random suffix keeps two items with the same category and name
// from colliding.
func GenerateSKU(category, name string) string {
	return "PH-" + prefixOf(category, 2) + "-" + prefixOf(name, 3) + "-" + RandomSuffix(4)
}

// prefixOf takes the first n letters or digits, upper-cased, padded
// with 'X' when the source is too short.
func prefixOf(s string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == n {
				break
			}
		}
	}
	for b.Len() < n {
		b.WriteByte('X')
	}
	return b.String()
}
