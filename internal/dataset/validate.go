package dataset

import (
	"fmt"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/record"
)

// Catalog resolves instrument names to scorers. *instrument.Registry
// satisfies it.
type Catalog interface {
	Lookup(name string) (instrument.Scorer, error)
}

// EmptyFieldMessage is the user-facing text for a blank required answer
func EmptyFieldMessage(instrumentName, key string) string {
	return fmt.Sprintf("In column '%s', the field for '%s' is empty", instrumentName, key)
}

// Validate checks every instrument for blank answers. It returns a copy of
// the master with optional description fields defaulted to "" and every
// problem found, in dataset order. The input is not modified.
func Validate(master *record.Master, catalog Catalog) (*record.Master, []*ferrors.FormError) {
	out := master.Clone()
	var errs []*ferrors.FormError

	for _, in := range out.Instruments {
		scorer, err := catalog.Lookup(in.Name)
		if err != nil {
			errs = append(errs, ferrors.NewValidation(in.Name, "",
				fmt.Sprintf("Column '%s' is not a supported assessment", in.Name)))
			continue
		}
		errs = append(errs, validateInstrument(in.Name, in.Answers, scorer.Rules())...)
	}
	return out, errs
}

func validateInstrument(name string, answers *record.Answers, rules instrument.Rules) []*ferrors.FormError {
	var errs []*ferrors.FormError
	empty := func(key string) {
		errs = append(errs, ferrors.NewValidation(name, key, EmptyFieldMessage(name, key)))
	}

	grouped := make(map[string]bool, len(rules.AllOrNothing))
	filled, blank := false, false
	for _, key := range rules.AllOrNothing {
		grouped[key] = true
		if !answers.Has(key) {
			continue
		}
		if answers.Get(key).IsMissing() {
			blank = true
		} else {
			filled = true
		}
	}
	if filled && blank {
		for _, key := range rules.AllOrNothing {
			if answers.Has(key) && answers.Get(key).IsMissing() {
				empty(key)
			}
		}
	}

	for _, key := range rules.DefaultEmpty {
		if answers.Get(key).IsMissing() {
			answers.Set(key, record.Text(""))
		}
	}

	for _, key := range answers.Keys() {
		if grouped[key] {
			continue
		}
		if answers.Get(key).IsMissing() {
			empty(key)
		}
	}
	return errs
}
