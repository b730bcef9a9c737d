package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	// ErrIDMalformed is returned when an id is neither an integer nor a digits-only string.
	ErrIDMalformed = errors.New("id must be an integer or numeric string")

	// ErrIDOutOfRange is returned when an id does not fit in 0..MaxInt64.
	ErrIDOutOfRange = errors.New("id out of range")
)

var (
	idStringPattern      = regexp.MustCompile(`^(0|[1-9][0-9]{0,18})$`)
	variableIDPattern    = regexp.MustCompile(`^[0-9]{6,}$`)
	unsignedDigitPattern = regexp.MustCompile(`^[0-9]+$`)
)

// ID keeps an identifier exactly as it appeared on the wire (a JSON number or a string),
// so that its shape can be validated later instead of being coerced while decoding.
type ID struct {
	raw any
	set bool
}

// NewID wraps a raw value. Decoded JSON numbers arrive as json.Number.
func NewID(v any) ID {
	return ID{raw: v, set: true}
}

// IsZero reports whether the id was absent.
func (id ID) IsZero() bool {
	return !id.set
}

// Raw returns the wire value.
func (id ID) Raw() any {
	return id.raw
}

func (id ID) String() string {
	if !id.set || id.raw == nil {
		return ""
	}

	switch v := id.raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the numeric value of the id. Native integers must be non-negative;
// strings must be digits only, without a leading zero.
func (id ID) Int64() (int64, error) {
	switch v := id.raw.(type) {
	case json.Number:
		s := v.String()
		if !unsignedDigitPattern.MatchString(s) {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil && n < 0 {
				return 0, ErrIDOutOfRange
			}

			return 0, ErrIDMalformed
		}

		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrIDOutOfRange
		}

		return n, nil
	case string:
		if !idStringPattern.MatchString(v) {
			return 0, ErrIDMalformed
		}

		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, ErrIDOutOfRange
		}

		return n, nil
	case int:
		return nonNegative(int64(v))
	case int32:
		return nonNegative(int64(v))
	case int64:
		return nonNegative(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, ErrIDOutOfRange
		}

		return int64(v), nil
	default:
		return 0, ErrIDMalformed
	}
}

// IsVariableID reports whether the id is a digits-only string of at least six characters,
// the form placeholders refer to.
func (id ID) IsVariableID() bool {
	s, ok := id.raw.(string)

	return ok && variableIDPattern.MatchString(s)
}

// Equal compares two ids the way they were written: a string never equals a number.
// Two absent ids are equal.
func (id ID) Equal(other ID) bool {
	if id.set != other.set {
		return false
	}

	if !id.set {
		return true
	}

	_, aString := id.raw.(string)
	_, bString := other.raw.(string)

	if aString != bString {
		return false
	}

	return id.String() == other.String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.raw)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var v any
	if err := decodeJSON(b, &v); err != nil {
		return err
	}

	*id = NewID(v)

	return nil
}

func nonNegative(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrIDOutOfRange
	}

	return n, nil
}
