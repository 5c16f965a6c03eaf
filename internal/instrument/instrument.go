package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// Instrument names as they appear in the workbook and template file names
const (
	WHODAS     = "WHODAS"
	WHODASKIDS = "WHODASKIDS"
	CANS       = "CANS"
	HONOS      = "HONOS"
	LSP        = "LSP"
	LAWTON     = "LAWTON"
	BBS        = "BBS"
	LEFS       = "LEFS"
	FRAT       = "FRAT"
	CASP       = "CASP"
)

// Scorer computes one instrument's derived fields and page markings.
// Implementations only read their own answers plus the general record.
type Scorer interface {
	Name() string
	Rules() Rules
	Score(general record.General, answers *record.Answers, res Resources) (*Result, error)
}

// Rules describes the answer keys an instrument expects and which of them
// may be left blank.
type Rules struct {
	// Keys lists the question keys in workbook order
	Keys []string

	// AllOrNothing keys must be either all answered or all blank
	AllOrNothing []string

	// DefaultEmpty keys are silently set to "" when blank
	DefaultEmpty []string
}

// Resources supplies line-oriented text tables some instruments highlight from
type Resources interface {
	Lines(name string) ([]string, error)
}

// Point is a position in display coordinates: points, origin top-left
type Point struct {
	X, Y float64
}

// Rect is a rectangle in display coordinates. When MirrorY is set, Y0 and Y1
// are distances to subtract from the page width, which is how forms laid
// out in landscape are measured.
type Rect struct {
	X0, Y0, X1, Y1 float64
	MirrorY        bool
}

// TextMatch selects the Occurrence-th (zero-based, counted across pages in
// order) occurrence of Needle on the template.
type TextMatch struct {
	Needle        string
	CaseSensitive bool
	Occurrence    int
}

// Highlight marks an answer region, either a fixed box on Page or a text match
type Highlight struct {
	Page int
	Rect *Rect
	Text *TextMatch
}

// Strike is a line drawn across an inapplicable section
type Strike struct {
	Page     int
	From, To Point
	Width    float64
}

// Result is a scored instrument ready for rendering
type Result struct {
	Instrument string

	// Fields maps form field names to presentation strings
	Fields *Fields

	// IncludeGeneral reports whether general fields are written to the form
	IncludeGeneral bool

	// Checks names the checkbox widgets to tick
	Checks []string

	Highlights []Highlight
	Strikes    []Strike

	// Totals carries the numeric composites behind the strings in Fields
	Totals map[string]float64
}

func newResult(name string) *Result {
	return &Result{
		Instrument:     name,
		Fields:         NewFields(),
		IncludeGeneral: true,
		Totals:         make(map[string]float64),
	}
}

func (r *Result) check(names ...string) {
	r.Checks = append(r.Checks, names...)
}

func (r *Result) box(page int, x0, y0, x1, y1 float64) {
	r.Highlights = append(r.Highlights, Highlight{Page: page, Rect: &Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}})
}

func (r *Result) text(needle string, caseSensitive bool, occurrence int) {
	r.Highlights = append(r.Highlights, Highlight{Text: &TextMatch{
		Needle:        needle,
		CaseSensitive: caseSensitive,
		Occurrence:    occurrence,
	}})
}

// copyAnswers writes every raw answer as its presentation string
func (r *Result) copyAnswers(answers *record.Answers) {
	for _, key := range answers.Keys() {
		r.Fields.Set(key, answers.Get(key).String())
	}
}

// Fields is an ordered field name → value mapping
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields creates an empty field set
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

// Set stores a value, keeping the first position of the key
func (f *Fields) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns a field value and whether it was set
func (f *Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns field names in the order they were set
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields
func (f *Fields) Len() int { return len(f.keys) }

// Map returns a copy as a plain map
func (f *Fields) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
