package instrument

import (
	"strconv"
	"strings"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/record"
)

// reader pulls typed answers out of a record and remembers the first
// problem, so scorers can read everything and check once.
type reader struct {
	instrument string
	answers    *record.Answers
	err        *ferrors.FormError
}

func newReader(instrument string, answers *record.Answers) *reader {
	return &reader{instrument: instrument, answers: answers}
}

func (r *reader) fail(key, format string, args ...any) {
	if r.err == nil {
		r.err = ferrors.NewScoring(r.instrument, key, format, args...)
	}
}

// whole reads a whole-number answer
func (r *reader) whole(key string) int {
	v := r.answers.Get(key)
	if v.IsMissing() {
		r.fail(key, "In column '%s', the field for '%s' is empty", r.instrument, key)
		return 0
	}
	n, ok := v.Int()
	if !ok {
		r.fail(key, "In column '%s', the field for '%s' must be a whole number, got %q", r.instrument, key, v.String())
		return 0
	}
	return n
}

// scale reads a whole-number answer within [lo, hi]
func (r *reader) scale(key string, lo, hi int) int {
	n := r.whole(key)
	if r.err == nil && (n < lo || n > hi) {
		r.fail(key, "In column '%s', the field for '%s' must be between %d and %d, got %d", r.instrument, key, lo, hi, n)
	}
	return n
}

// yesNo reads a textual Y/N answer. Anything other than Y or N reads as
// neither; numbers and blanks are errors.
func (r *reader) yesNo(key string) (yes, no bool) {
	v := r.answers.Get(key)
	if v.Kind() != record.KindText {
		if v.IsMissing() {
			r.fail(key, "In column '%s', the field for '%s' is empty", r.instrument, key)
		} else {
			r.fail(key, "In column '%s', the field for '%s' must be Y or N, got %q", r.instrument, key, v.String())
		}
		return false, false
	}
	return v.IsYes(), v.IsNo()
}

func (r *reader) yes(key string) bool {
	y, _ := r.yesNo(key)
	return y
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	return nil
}

func intKeys(lo, hi int) []string {
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func prefixed(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return out
}

func letters(from, to byte) []string {
	var out []string
	for c := from; c <= to; c++ {
		out = append(out, string(c))
	}
	return out
}

// round rounds to the given number of decimals from the exact binary value
// of x. Exact ties go to the even digit, so 2.25 rounds to 2.2.
func round(x float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// decimal prints a rounded score the way the paper forms expect: always
// with a fractional part, "2.0" rather than "2".
func decimal(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }

func fraction(n, of int) string { return itoa(n) + "/" + itoa(of) }

func percent(x float64) string { return decimal(x) + "%" }
