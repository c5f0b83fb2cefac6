package credentials

import (
	"regexp"
	"unicode/utf8"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 6

// emailRe counts Unicode space separators, vertical tab and the byte order
// mark as whitespace, as browsers do.
var emailRe = regexp.MustCompile(`^[^\s\x0B\p{Z}\x{FEFF}@]+@[^\s\x0B\p{Z}\x{FEFF}@]+\.[^\s\x0B\p{Z}\x{FEFF}@]+$`)

func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

func ValidatePassword(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}
