// Package barcode validates numeric linear barcodes (EAN-13, EAN-8, UPC-A)
// by their trailing check digit.
package barcode

import (
	"errors"
	"fmt"
	"strings"
)

type Symbology string

const (
	EAN13 Symbology = "EAN-13"
	EAN8  Symbology = "EAN-8"
	UPCA  Symbology = "UPC-A"
)

var (
	// ErrFormat means the input is not a digit string of an accepted length.
	ErrFormat = errors.New("barcode must be a numeric EAN-8, UPC-A or EAN-13 code")
	// ErrChecksum means the length is right but the check digit is not.
	ErrChecksum = errors.New("barcode check digit does not match")
)

// Validate trims code and checks it against the symbology implied by its
// length: 13 digits EAN-13, 12 digits UPC-A, 8 digits EAN-8.
func Validate(code string) (Symbology, error) {
	code = strings.TrimSpace(code)
	if !isDigits(code) {
		return "", fmt.Errorf("%w: %q", ErrFormat, code)
	}

	switch len(code) {
	case 13:
		return EAN13, ValidateEAN13(code)
	case 12:
		return UPCA, ValidateUPCA(code)
	case 8:
		return EAN8, ValidateEAN8(code)
	default:
		return "", fmt.Errorf("%w: got %d digits", ErrFormat, len(code))
	}
}

func ValidateEAN13(code string) error {
	if len(code) != 13 || !isDigits(code) {
		return fmt.Errorf("%w: EAN-13 needs 13 digits", ErrFormat)
	}
	return compare(code, EAN13CheckDigit(code[:12]))
}

func ValidateEAN8(code string) error {
	if len(code) != 8 || !isDigits(code) {
		return fmt.Errorf("%w: EAN-8 needs 8 digits", ErrFormat)
	}
	return compare(code, EAN8CheckDigit(code[:7]))
}

func ValidateUPCA(code string) error {
	if len(code) != 12 || !isDigits(code) {
		return fmt.Errorf("%w: UPC-A needs 12 digits", ErrFormat)
	}
	return compare(code, UPCACheckDigit(code[:11]))
}

// EAN13CheckDigit weights the 12 data digits 1,3,1,3,... from the left.
// data must be digits only.
func EAN13CheckDigit(data string) int {
	return weightedCheckDigit(data, 1, 3)
}

// EAN8CheckDigit weights the 7 data digits 3,1,3,1,... from the left.
func EAN8CheckDigit(data string) int {
	return weightedCheckDigit(data, 3, 1)
}

// UPCACheckDigit triples the digits at odd positions (1st, 3rd, ... 11th)
// and adds the digits at even positions.
func UPCACheckDigit(data string) int {
	return weightedCheckDigit(data, 3, 1)
}

func weightedCheckDigit(data string, first, second int) int {
	sum := 0
	for i := 0; i < len(data); i++ {
		weight := first
		if i%2 == 1 {
			weight = second
		}
		sum += int(data[i]-'0') * weight
	}
	return (10 - sum%10) % 10
}

func compare(code string, expected int) error {
	got := int(code[len(code)-1] - '0')
	if got != expected {
		return fmt.Errorf("%w: expected %d, got %d", ErrChecksum, expected, got)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsNumeric reports whether s, once trimmed, is a non-empty digit string.
func IsNumeric(s string) bool {
	return isDigits(strings.TrimSpace(s))
}
