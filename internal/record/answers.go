package record

import "strconv"

// Answers is an instrument's question key → answer mapping. Keys keep the
// order in which they were first set, which follows the source rows.
type Answers struct {
	keys   []string
	values map[string]Value
}

// NewAnswers creates an empty answer set
func NewAnswers() *Answers {
	return &Answers{values: make(map[string]Value)}
}

// Set stores a value. Re-setting an existing key keeps its position.
func (a *Answers) Set(key string, v Value) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

// Get returns the value for key; absent keys report missing
func (a *Answers) Get(key string) Value {
	if a == nil {
		return Missing()
	}
	return a.values[key]
}

// GetInt looks up an integer question key
func (a *Answers) GetInt(key int) Value {
	return a.Get(strconv.Itoa(key))
}

// Has reports whether key was present in the source, even if blank
func (a *Answers) Has(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.values[key]
	return ok
}

// Keys returns the keys in insertion order
func (a *Answers) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of keys
func (a *Answers) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns an independent copy
func (a *Answers) Clone() *Answers {
	out := NewAnswers()
	if a == nil {
		return out
	}
	for _, k := range a.keys {
		out.Set(k, a.values[k])
	}
	return out
}

// MissingKeys lists keys whose value is missing, in order
func (a *Answers) MissingKeys() []string {
	var out []string
	for _, k := range a.Keys() {
		if a.values[k].IsMissing() {
			out = append(out, k)
		}
	}
	return out
}
