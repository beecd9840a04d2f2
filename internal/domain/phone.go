package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

var dialablePattern = regexp.MustCompile(`^\+\d{10,15}$`)

var separatorStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// A phone number in international dialable form: leading '+', 10-15 digits, no separators.
type NormalizedPhoneNumber string

func (n NormalizedPhoneNumber) String() string { return string(n) }

// NormalizePhoneNumber converts a stored phone string to dialable form.
//
// A missing '+' is added rather than rejected, so a domestic number stored
// without its country code is read as if the leading digits were one.
func NormalizePhoneNumber(raw string) (NormalizedPhoneNumber, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	s = separatorStripper.Replace(s)

	if !dialablePattern.MatchString(s) {
		return "", fmt.Errorf("normalize phone number %q: %w", Redact(raw), ErrInvalidPhoneNumber)
	}

	return NormalizedPhoneNumber(s), nil
}

const (
	redactPrefixLen = 6
	redactMask      = "****"
)

// Redact keeps at most the first six characters of a phone number.
func Redact(raw string) string {
	r := []rune(raw)
	if len(r) > redactPrefixLen {
		r = r[:redactPrefixLen]
	}
	return string(r) + redactMask
}

// ScrubNumber replaces every occurrence of n in text, with or without its
// leading '+', by the redacted form of n.
func ScrubNumber(text string, n NormalizedPhoneNumber) string {
	if n == "" {
		return text
	}
	full := n.String()
	masked := Redact(full)
	text = strings.ReplaceAll(text, full, masked)
	return strings.ReplaceAll(text, strings.TrimPrefix(full, "+"), masked)
}
