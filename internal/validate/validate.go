package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{4,19}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a required display string of at most max bytes.
func Name(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > max {
		return "", false
	}
	return s, true
}

// Optional trims s and reports whether it fits in max bytes; empty is fine.
func Optional(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= max
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// ID reads a positive integer from a decoded JSON value: a whole number
// or a numeric string ("12"). Go integers pass through.
func ID(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, x >= 1
	case int:
		return int64(x), x >= 1
	case float64:
		if x < 1 || x >= 1<<63 || x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// IDList accepts a JSON array of ids or a comma separated string ("1,2").
func IDList(v any) ([]int64, bool) {
	var raw []any
	switch x := v.(type) {
	case []any:
		raw = x
	case string:
		for _, p := range strings.Split(x, ",") {
			raw = append(raw, p)
		}
	default:
		return nil, false
	}
	out := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, ok := ID(r)
		if !ok {
			return nil, false
		}
		out = append(out, id)
	}
	return out, len(out) > 0
}

// Password requires 8-20 characters mixing lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
