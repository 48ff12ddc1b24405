package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var (
	// ErrMissing is returned when a required value is absent, null or blank.
	ErrMissing = errors.New("value is missing")
	// ErrInvalidUID is returned when a UID is not a non-negative integer.
	ErrInvalidUID = errors.New("uid must be a non-negative integer")
	// ErrInvalidNumber is returned when a count is not a non-negative integer.
	ErrInvalidNumber = errors.New("value must be a non-negative integer")
)

// UID extracts a guest UID from a raw JSON value. Both JSON numbers and
// strings of decimal digits are accepted ("7" and 7 are the same UID).
func UID(raw json.RawMessage) (uint64, error) {
	s, err := digits(raw, ErrInvalidUID)
	if err != nil {
		return 0, err
	}
	// Bounded to int64 so every accepted UID fits a signed BIGINT column.
	uid, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUID, s)
	}
	return uint64(uid), nil
}

// Int extracts a non-negative int from a JSON number or digit string, as
// sent by HTML forms that post every input value as a string.
func Int(raw json.RawMessage) (int, error) {
	s, err := digits(raw, ErrInvalidNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return int(n), nil
}

// digits returns the decimal digits held by raw, rejecting signs, fractions
// and exponents with invalid.
func digits(raw json.RawMessage, invalid error) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrMissing
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", invalid, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", ErrMissing
		}
	} else {
		s = string(raw)
	}

	if !digitsRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", invalid, s)
	}
	return s, nil
}

// Name trims a free-text name and collapses internal runs of whitespace.
func Name(raw string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
}
