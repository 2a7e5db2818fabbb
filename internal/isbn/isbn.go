// Package isbn validates ISBN-13 numbers as read from EAN-13 barcodes.
package isbn

import (
	"regexp"

	"github.com/shelfscan/backend/internal/domain"
)

// Length is the number of digits in an ISBN-13
const Length = 13

var nonDigitRegex = regexp.MustCompile(`\D`)

// Digits strips every non-digit character from s
func Digits(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// CheckDigit computes the ISBN-13 check digit for the first 12 digits of payload.
// Weights alternate 1,3 starting at index 0. ok is false when payload holds fewer
// than 12 digits or a non-digit byte.
func CheckDigit(payload string) (digit int, ok bool) {
	if len(payload) < Length-1 {
		return 0, false
	}

	sum := 0
	for i := 0; i < Length-1; i++ {
		c := payload[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(c-'0') * weight
	}

	return (10 - sum%10) % 10, true
}

// IsISBN13 reports whether s, stripped of non-digits, is exactly 13 digits with
// a matching check digit
func IsISBN13(s string) bool {
	d := Digits(s)
	if len(d) != Length {
		return false
	}

	expected, ok := CheckDigit(d)
	if !ok {
		return false
	}
	return expected == int(d[Length-1]-'0')
}

// Normalize returns the bare 13 digits of s, or domain.ErrInvalidISBN
func Normalize(s string) (string, error) {
	if !IsISBN13(s) {
		return "", domain.ErrInvalidISBN
	}
	return Digits(s), nil
}
