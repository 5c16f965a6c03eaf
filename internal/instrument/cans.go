package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// Description rows on the right of the CANS summary page
var (
	cansDescX = [2]float64{638.5, 815.8}
	cansDescY = []float64{121.7, 132.5, 155.5, 178.6, 235.4, 258.5, 281.5, 304.6, 360.7}
)

// cansLevel is one outcome of the level decision table
type cansLevel struct {
	label string
	value float64
	row   int
}

// cans scores the Care and Needs Scale: 28 yes/no items whose counts per
// group decide a support level.
type cans struct{}

func (cans) Name() string { return CANS }

func (cans) Rules() Rules {
	return Rules{
		Keys:         append(intKeys(1, 28), "A_desc", "B_desc", "C_desc", "D_desc"),
		DefaultEmpty: []string{"A_desc", "B_desc", "C_desc", "D_desc"},
	}
}

func (cans) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(CANS)
	res.copyAnswers(answers)
	rd := newReader(CANS, answers)

	var a, b, c, d int
	for q := 1; q <= 28; q++ {
		key := itoa(q)
		yes, no := rd.yesNo(key)
		switch {
		case yes:
			res.check("Y" + key)
			switch {
			case q <= 10:
				a++
			case q <= 14:
				b++
			case q <= 25:
				c++
			default:
				d++
			}
		case no:
			res.check("N" + key)
		}
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	level := classifyCANS(a, b, c, d)
	res.Fields.Set("A_subtotal", itoa(a))
	res.Fields.Set("B_subtotal", itoa(b))
	res.Fields.Set("C_subtotal", itoa(c))
	res.Fields.Set("D_subtotal", itoa(d))
	res.Fields.Set("subtotal", itoa(a+b+c+d))
	res.Fields.Set("total", level.label)
	res.Totals["subtotal"] = float64(a + b + c + d)
	res.Totals["total"] = level.value

	res.box(0, cansDescX[0], cansDescY[level.row], cansDescX[1], cansDescY[level.row+1])
	return res, nil
}

// classifyCANS applies the level table to the group subtotals. Group A is
// tested first, so A=4 is level 4.3 whatever the other groups hold.
func classifyCANS(a, b, c, d int) cansLevel {
	switch {
	case a < 4:
		switch {
		case b >= 4:
			return cansLevel{"4.2", 4.2, 3}
		case c >= 4:
			return cansLevel{"4.1", 4.1, 3}
		case c == 3 || d == 3:
			return cansLevel{"3", 3, 4}
		case c == 2 || d == 2:
			return cansLevel{"2", 2, 5}
		case c == 1 || d == 1:
			return cansLevel{"1", 1, 6}
		default:
			return cansLevel{"0", 0, 7}
		}
	case a == 4:
		return cansLevel{"4.3", 4.3, 3}
	case a == 5:
		return cansLevel{"5", 5, 2}
	case a == 6:
		return cansLevel{"6", 6, 1}
	default:
		return cansLevel{"7", 7, 0}
	}
}
