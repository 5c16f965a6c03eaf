package record

// Instrument is one instrument's answers as read from the dataset
type Instrument struct {
	Name    string
	Answers *Answers
}

// Master holds everything extracted from one dataset: the GENERAL record and
// the instrument records in dataset-definition order.
type Master struct {
	General     General
	Instruments []Instrument
}

// Instrument returns the record for name
func (m *Master) Instrument(name string) (*Answers, bool) {
	for _, in := range m.Instruments {
		if in.Name == name {
			return in.Answers, true
		}
	}
	return nil, false
}

// Names returns instrument names in dataset order, GENERAL excluded
func (m *Master) Names() []string {
	out := make([]string, 0, len(m.Instruments))
	for _, in := range m.Instruments {
		out = append(out, in.Name)
	}
	return out
}

// Clone returns a deep copy so later stages never mutate earlier output
func (m *Master) Clone() *Master {
	out := &Master{General: m.General.Clone()}
	for _, in := range m.Instruments {
		out.Instruments = append(out.Instruments, Instrument{Name: in.Name, Answers: in.Answers.Clone()})
	}
	return out
}
