package record

import "strconv"

// General field names used by derivations and templates
const (
	GeneralGroup = "GENERAL"

	FieldFirstName   = "patient_first_name"
	FieldSurname     = "patient_surname"
	FieldPatientName = "patient_name"
	FieldDOB         = "DOB"
	FieldDate        = "date"
	FieldAge         = "age"
	FieldGender      = "gender"
)

// General is the patient identity record shared by every instrument in one
// upload. Every value is a presentation string; blanks are "".
type General struct {
	keys   []string
	values map[string]string

	// Age is the computed age in whole years, or -1 when no DOB was given
	Age int
}

// NewGeneral creates an empty general record
func NewGeneral() General {
	return General{values: make(map[string]string), Age: -1}
}

// Set stores a field, keeping first-seen order
func (g *General) Set(key, value string) {
	if g.values == nil {
		g.values = make(map[string]string)
	}
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = value
}

// SetAge stores the derived age both as a number and as a field
func (g *General) SetAge(age int) {
	g.Age = age
	g.Set(FieldAge, strconv.Itoa(age))
}

// Get returns a field value, "" when absent
func (g General) Get(key string) string {
	return g.values[key]
}

// Lookup returns a field value and whether it exists
func (g General) Lookup(key string) (string, bool) {
	v, ok := g.values[key]
	return v, ok
}

// Keys returns field names in order
func (g General) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// PatientName returns the derived full name
func (g General) PatientName() string { return g.values[FieldPatientName] }

// Gender returns the raw gender field
func (g General) Gender() string { return g.values[FieldGender] }

// Clone returns an independent copy
func (g General) Clone() General {
	out := NewGeneral()
	for _, k := range g.keys {
		out.Set(k, g.values[k])
	}
	out.Age = g.Age
	return out
}
