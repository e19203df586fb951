// Package query classifies raw input and dispatches it against the dataset.
package query

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// MinTextLength is the shortest accepted text search.
const MinTextLength = 3

// Normalize reduces raw input to a canonical 10-digit identifier.
// Country prefixes 91 and 091 and the trunk prefix 0 are dropped.
func Normalize(raw string) (string, error) {
	digits := digitsOf(raw)
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	case len(digits) == 13 && strings.HasPrefix(digits, "091"):
		digits = digits[3:]
	}
	if !validIdentifier(digits) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidIdentifier, raw)
	}
	return digits, nil
}

// NormalizeAlt canonicalises an alternate phone stored in a record by keeping
// its last ten digits. ok is false when nothing usable remains.
func NormalizeAlt(raw string) (string, bool) {
	digits := digitsOf(raw)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits, validIdentifier(digits)
}

func validIdentifier(d string) bool {
	if len(d) != 10 {
		return false
	}
	switch d[0] {
	case '6', '7', '8', '9':
		return true
	}
	return false
}

func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// phoneShaped reports whether s is only digits and phone punctuation with 7 to 15 digits.
func phoneShaped(s string) bool {
	n := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n++
		case r == ' ', r == '-', r == '+', r == '(', r == ')', r == '.':
		default:
			return false
		}
	}
	return n >= 7 && n <= 15
}

// Classify builds a SearchQuery. KindAuto resolves phone-shaped input to an
// identifier lookup and everything else to a name search; explicit kinds are kept.
func Classify(raw string, kind model.FieldKind, caller string, now time.Time) (model.SearchQuery, error) {
	q := model.SearchQuery{Raw: raw, Kind: kind, Caller: caller, Timestamp: now}
	text := strings.TrimSpace(raw)
	if text == "" {
		return q, fmt.Errorf("%w: empty query", model.ErrInvalidQuery)
	}

	if q.Kind == "" || q.Kind == model.KindAuto {
		if phoneShaped(text) {
			q.Kind = model.KindIdentifier
		} else {
			q.Kind = model.KindName
		}
	}

	switch q.Kind {
	case model.KindIdentifier:
		id, err := Normalize(text)
		if err != nil {
			return q, err
		}
		q.Normalized = id
	case model.KindName, model.KindEmail, model.KindAddress, model.KindFatherName:
		text = strings.Join(strings.Fields(text), " ")
		if utf8.RuneCountInString(text) < MinTextLength {
			return q, fmt.Errorf("%w: %s search needs at least %d characters", model.ErrInvalidQuery, q.Kind, MinTextLength)
		}
		q.Normalized = text
	default:
		return q, fmt.Errorf("%w: unknown search kind %q", model.ErrInvalidQuery, q.Kind)
	}
	return q, nil
}
