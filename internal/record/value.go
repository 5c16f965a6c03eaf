package record

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a spreadsheet cell held
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single typed answer. The zero value is missing, which is distinct
// from both the empty string and zero.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Missing returns a missing value
func Missing() Value { return Value{} }

// Number returns a numeric value
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a textual value. Empty text is still present.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Parse converts a raw cell string into a Value. Blank cells are missing;
// anything parseable as a number becomes numeric.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Missing()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Text(raw)
}

// Kind returns the kind of value held
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell was blank
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric value, if any
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Int returns the value as an integer when it is a whole number
func (v Value) Int() (int, bool) {
	if v.kind != KindNumber || v.num != math.Trunc(v.num) {
		return 0, false
	}
	return int(v.num), true
}

// Upper returns the trimmed, upper-cased text of a textual value
func (v Value) Upper() string {
	if v.kind != KindText {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(v.str))
}

// IsYes reports whether the value is a 'Y' answer
func (v Value) IsYes() bool { return v.Upper() == "Y" }

// IsNo reports whether the value is an 'N' answer
func (v Value) IsNo() bool { return v.Upper() == "N" }

// String renders the value for a form field. Whole numbers print without a
// decimal part, missing values print as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	default:
		return ""
	}
}

// Equal reports whether two values hold the same kind and content
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.str == o.str
}

// FormatNumber prints whole numbers as integers and everything else in the
// shortest representation.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizeKey turns a raw index cell into a canonical question key. Whole
// numbers lose their fractional part so that 51.0 and 51 name the same key.
func NormalizeKey(v Value) (string, bool) {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num), true
	case KindText:
		key := strings.TrimSpace(v.str)
		return NormalizeKeyString(key), key != ""
	default:
		return "", false
	}
}

// NormalizeKeyString canonicalizes a key that may look numeric, such as a
// form field named "51.0".
func NormalizeKeyString(key string) string {
	if f, err := strconv.ParseFloat(key, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return key
}
