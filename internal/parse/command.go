package parse

import (
	"strconv"
	"strings"
	"unicode"
)

// Command coerces operator input into an IBIS command code. It reads an
// optional sign followed by the longest run of decimal digits after leading
// whitespace; anything unparseable yields 0.
func Command(raw string) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
