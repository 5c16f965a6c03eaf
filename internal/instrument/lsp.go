package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// The LSP grid was measured on a 140 dpi scan
const lspScale = 72.0 / 140.0

var (
	lspColumns = scaled(550, 670, 792, 912, 1034)
	lspRows    = scaled(328, 380, 454, 506, 580, 652, 744, 778, 892, 944, 1038, 1090, 1164, 1236, 1288, 1320, 1394)

	lspGroups = []struct {
		field string
		items []int
		max   int
	}{
		{"a_score", []int{1, 2, 3, 8}, 12},
		{"b_score", []int{4, 5, 6, 9, 16}, 15},
		{"c_score", []int{10, 11, 12}, 9},
		{"d_score", []int{7, 13, 14, 15}, 12},
	}
)

// lspMax is the highest possible total: 16 rows scored 0 to 3
const lspMax = 48

func scaled(px ...float64) []float64 {
	out := make([]float64, len(px))
	for i, p := range px {
		out[i] = p * lspScale
	}
	return out
}

// lsp scores the Life Skills Profile, 16 rows on a four point scale
type lsp struct{}

func (lsp) Name() string { return LSP }

func (lsp) Rules() Rules { return Rules{Keys: intKeys(1, 16)} }

func (lsp) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(LSP)
	res.copyAnswers(answers)
	rd := newReader(LSP, answers)

	scores := make(map[int]int, 16)
	for row := 0; row < 16; row++ {
		score := rd.scale(itoa(row+1), 0, 3)
		scores[row+1] = score
		if rd.err != nil {
			continue
		}
		res.box(0, lspColumns[score]+10, lspRows[row], lspColumns[score+1]-10, lspRows[row+1])
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	total := 0
	for _, g := range lspGroups {
		sum := 0
		for _, item := range g.items {
			sum += scores[item]
		}
		total += sum
		res.Totals[g.field] = float64(sum)
		res.Fields.Set(g.field, fraction(sum, g.max))
	}

	scaledTotal := round(float64(total)*100/lspMax, 2)
	res.Totals["total"] = float64(total)
	res.Totals["total_100"] = scaledTotal
	res.Fields.Set("total", itoa(total))
	res.Fields.Set("total_100", decimal(scaledTotal)+"/100")
	return res, nil
}
