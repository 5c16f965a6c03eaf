package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// LEFS is printed rotated; columns are measured from the right page edge
var (
	lefsColumns = []float64{394, 407, 476, 492, 546, 562, 614, 628, 681, 694}
	lefsRows    = []float64{199, 211, 223, 235.5, 249, 261, 274, 286.5, 299, 312, 324, 337, 349, 362, 374, 386, 399, 412.5, 425, 438, 449}
)

// lefs scores the Lower Extremity Functional Scale, 20 rows scored 0 to 4.
// Raw answers are not written back, only the totals.
type lefs struct{}

func (lefs) Name() string { return LEFS }

func (lefs) Rules() Rules { return Rules{Keys: intKeys(1, 20)} }

func (lefs) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(LEFS)
	rd := newReader(LEFS, answers)

	total := 0
	perScore := make([]int, 5)
	for row := 0; row < 20; row++ {
		score := rd.scale(itoa(row+1), 0, 4)
		if rd.err != nil {
			continue
		}
		total += score
		perScore[score] += score
		res.Highlights = append(res.Highlights, Highlight{Page: 0, Rect: &Rect{
			X0:      lefsRows[row] + 2,
			Y0:      lefsColumns[2*score+1],
			X1:      lefsRows[row+1] - 2,
			Y1:      lefsColumns[2*score],
			MirrorY: true,
		}})
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	res.Totals["total"] = float64(total)
	res.Fields.Set("total", itoa(total))
	for score, points := range perScore {
		res.Fields.Set(itoa(score)+"_total", itoa(points))
	}
	return res, nil
}
