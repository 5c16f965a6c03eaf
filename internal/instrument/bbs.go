package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// bbs scores the Berg Balance Scale. Only the total is written; the form
// has no patient fields.
type bbs struct{}

func (bbs) Name() string { return BBS }

func (bbs) Rules() Rules { return Rules{Keys: intKeys(1, 14)} }

func (bbs) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(BBS)
	res.IncludeGeneral = false
	rd := newReader(BBS, answers)

	total := 0
	for _, key := range intKeys(1, 14) {
		score := rd.scale(key, 0, 4)
		total += score
		res.check(key + "_" + itoa(score))
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	res.Totals["total"] = float64(total)
	res.Fields.Set("total", itoa(total))
	return res, nil
}
