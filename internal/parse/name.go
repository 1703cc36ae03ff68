package parse

import "strings"

// FileName turns a route name into the basename used for its export file:
// ASCII letters are lower-cased, digits kept, and every other character
// becomes '_'. Distinct names can map to the same basename.
func FileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
