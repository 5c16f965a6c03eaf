package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// CASP domains partition the 20 items without overlap
var caspDomains = []struct {
	field    string
	from, to int
	max      int
}{
	{"1_summary", 1, 6, 24},
	{"2_summary", 7, 10, 16},
	{"3_summary", 11, 15, 20},
	{"4_summary", 16, 20, 20},
}

// casp scores the CASP quality of life scale, 20 items scored 0 to 4
type casp struct{}

func (casp) Name() string { return CASP }

func (casp) Rules() Rules { return Rules{Keys: intKeys(1, 20)} }

func (casp) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(CASP)
	res.copyAnswers(answers)
	rd := newReader(CASP, answers)

	scores := make([]int, 21)
	for q := 1; q <= 20; q++ {
		key := itoa(q)
		scores[q] = rd.scale(key, 0, 4)
		res.check(key + "_" + itoa(scores[q]))
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	total := 0
	for _, d := range caspDomains {
		sum := 0
		for q := d.from; q <= d.to; q++ {
			sum += scores[q]
		}
		total += sum
		res.Totals[d.field] = float64(sum)
		res.Fields.Set(d.field, fraction(sum, d.max))
	}

	pct := round(float64(total)/80*100, 2)
	res.Totals["total"] = float64(total)
	res.Totals["percent"] = pct
	res.Fields.Set("total", "Total: "+fraction(total, 80)+" = "+percent(pct))
	return res, nil
}
