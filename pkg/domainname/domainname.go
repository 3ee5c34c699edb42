// Package domainname normalizes and validates bare domain names.
//
// The registry lookup wants "example.com", not a URL, so user input is
// stripped of its scheme and trailing slash and lowercased before the
// grammar check.
package domainname

import (
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid domain name")

// Normalize strips an optional http(s):// prefix and trailing slash,
// lowercases the rest, and validates it against the domain-name grammar:
// dot-separated labels of 1-63 alphanumeric/hyphen characters that do not
// start or end with a hyphen, at least two labels, and an alphanumeric
// top-level label.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	s = strings.ToLower(s)

	if !valid(s) {
		return "", ErrInvalid
	}
	return s, nil
}

// Valid reports whether s is an already-normalized valid domain name.
func Valid(s string) bool { return valid(s) }

func valid(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for i, label := range labels {
		tld := i == len(labels)-1
		if !validLabel(label, tld) {
			return false
		}
	}
	return true
}

func validLabel(label string, tld bool) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
			// The top-level label must be purely alphanumeric.
			if tld {
				return false
			}
		default:
			return false
		}
	}
	return true
}
