package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is the normalized form of every venue, order, showtime and banner
// identifier.  Identifiers reach the service from MySQL (uint64), from
// JSON bodies (float64 or string) and from the remote directory (either),
// so they are converted once at the boundary and compared with == after
// that.  The zero value means "absent".
type ID string

// NewID converts a loosely typed identifier into its canonical form.
// Integral floats lose their fractional part (1.0 -> "1"), strings are
// trimmed, numeric strings lose leading zeros and integral decimal strings
// their zero fraction ("1.0" -> "1").  Other strings are kept as is.
// Unsupported types and non integral floats yield an error.
func NewID(v any) (ID, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case ID:
		return t, nil
	case uint64:
		return ID(strconv.FormatUint(t, 10)), nil
	case uint32:
		return ID(strconv.FormatUint(uint64(t), 10)), nil
	case uint:
		return ID(strconv.FormatUint(uint64(t), 10)), nil
	case int:
		return ID(strconv.FormatInt(int64(t), 10)), nil
	case int32:
		return ID(strconv.FormatInt(int64(t), 10)), nil
	case int64:
		return ID(strconv.FormatInt(t, 10)), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return "", fmt.Errorf("id %v is not integral", t)
		}
		return ID(strconv.FormatInt(int64(t), 10)), nil
	case json.Number:
		return NewID(string(t))
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return ID(strconv.FormatUint(n, 10)), nil
		}
		if whole, ok := integralDecimal(s); ok {
			return ID(whole), nil
		}
		return ID(s), nil
	}
	return "", fmt.Errorf("unsupported id type %T", v)
}

// integralDecimal reports whether s is digits, a dot and only zeros, and
// returns the canonical integer part.
func integralDecimal(s string) (string, bool) {
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || whole == "" || strings.Trim(frac, "0") != "" {
		return "", false
	}
	n, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}

// MustID is NewID for values known to be valid (e.g. uint64 columns).
func MustID(v any) ID {
	id, err := NewID(v)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// Uint64 returns the numeric form of the id for SQL parameters.
func (id ID) Uint64() (uint64, error) {
	return strconv.ParseUint(string(id), 10, 64)
}

// UnmarshalJSON accepts both numbers and strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v, err := NewID(raw)
	if err != nil {
		return err
	}
	*id = v
	return nil
}
