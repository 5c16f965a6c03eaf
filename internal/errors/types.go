package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FormError is a processing error tied to a dataset and, where known, the
// instrument and field it concerns
type FormError struct {
	Kind       ErrorKind `json:"kind"`
	Dataset    string    `json:"dataset,omitempty"`
	Instrument string    `json:"instrument,omitempty"`
	Field      string    `json:"field,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

// ErrorKind categorizes where in the pipeline an error came from
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindExtraction
	KindValidation
	KindScoring
	KindRender
	KindResource
	KindInput
)

// String returns a string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindExtraction:
		return "EXTRACTION"
	case KindValidation:
		return "VALIDATION"
	case KindScoring:
		return "SCORING"
	case KindRender:
		return "RENDER"
	case KindResource:
		return "RESOURCE"
	case KindInput:
		return "INPUT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets the kind serialize by name
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name; unknown names become KindUnknown
func (k *ErrorKind) UnmarshalText(text []byte) error {
	*k = KindUnknown
	for kind := KindExtraction; kind <= KindInput; kind++ {
		if kind.String() == string(text) {
			*k = kind
			break
		}
	}
	return nil
}

// IsFatal reports whether errors of this kind abort the dataset's output.
// Validation errors are collected instead.
func (k ErrorKind) IsFatal() bool {
	return k != KindValidation
}

// Error implements the error interface
func (e *FormError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause
func (e *FormError) Unwrap() error { return e.Err }

// Subject returns the field if set, otherwise the instrument
func (e *FormError) Subject() string {
	if e.Field != "" {
		return e.Field
	}
	return e.Instrument
}

// NewExtraction creates an ExtractionError
func NewExtraction(format string, args ...any) *FormError {
	return &FormError{Kind: KindExtraction, Message: fmt.Sprintf(format, args...)}
}

// NewValidation creates a ValidationError for an empty or invalid field
func NewValidation(instrument, field, message string) *FormError {
	return &FormError{Kind: KindValidation, Instrument: instrument, Field: field, Message: message}
}

// NewScoring creates a ScoringError naming the instrument
func NewScoring(instrument, field, format string, args ...any) *FormError {
	return &FormError{
		Kind:       KindScoring,
		Instrument: instrument,
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
	}
}

// WrapRender wraps a rendering failure for an instrument
func WrapRender(instrument string, err error) *FormError {
	return &FormError{
		Kind:       KindRender,
		Instrument: instrument,
		Message:    fmt.Sprintf("failed to render %s", instrument),
		Err:        err,
	}
}

// WrapResource wraps a failure to load a template or text resource
func WrapResource(name string, err error) *FormError {
	return &FormError{
		Kind:    KindResource,
		Field:   name,
		Message: fmt.Sprintf("failed to load resource %s", name),
		Err:     err,
	}
}

// WithDataset sets the dataset identifier
func (e *FormError) WithDataset(dataset string) *FormError {
	e.Dataset = dataset
	return e
}

// WithInstrument sets the instrument when not already known
func (e *FormError) WithInstrument(instrument string) *FormError {
	if e.Instrument == "" {
		e.Instrument = instrument
	}
	return e
}

// As converts any error into a FormError, wrapping foreign errors with the
// given kind
func As(err error, kind ErrorKind) *FormError {
	if err == nil {
		return nil
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe
	}
	return &FormError{Kind: kind, Message: kind.String() + " error", Err: err}
}

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) ErrorKind {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Collection gathers the errors reported for one dataset
type Collection struct {
	Dataset string       `json:"dataset"`
	Errors  []*FormError `json:"errors"`
}

// NewCollection creates an empty collection for a dataset
func NewCollection(dataset string) *Collection {
	return &Collection{Dataset: dataset, Errors: make([]*FormError, 0)}
}

// Add appends errors, stamping the dataset
func (c *Collection) Add(errs ...*FormError) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if err.Dataset == "" {
			err.Dataset = c.Dataset
		}
		c.Errors = append(c.Errors, err)
	}
}

// Empty reports whether nothing was collected
func (c *Collection) Empty() bool { return len(c.Errors) == 0 }

// Messages returns the human-readable messages in order
func (c *Collection) Messages() []string {
	out := make([]string, 0, len(c.Errors))
	for _, err := range c.Errors {
		out = append(out, err.Error())
	}
	return out
}

// Summary returns a text summary of the collection
func (c *Collection) Summary() string {
	if c.Empty() {
		return "No errors"
	}
	counts := make(map[ErrorKind]int)
	for _, err := range c.Errors {
		counts[err.Kind]++
	}
	parts := make([]string, 0, len(counts))
	for _, k := range []ErrorKind{KindExtraction, KindValidation, KindScoring, KindRender, KindResource, KindInput, KindUnknown} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(k.String())))
		}
	}
	return fmt.Sprintf("Found %d error(s) in %s (%s)", len(c.Errors), c.Dataset, strings.Join(parts, ", "))
}
