package instrument

import (
	"github.com/a3tai/assessment-forms/internal/record"
)

// FRAT risk bands
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

const fratFalls = "Recent Falls"

var (
	fratScored    = []string{"Medications", "Psychological", "Cognitive Status"}
	fratOverrides = []string{"auto_high_1", "auto_high_2"}
	fratChecklist = []string{"Vision", "Mobility", "Transfers", "Behaviours", "ADLs", "Environment", "Nutrition", "Continence", "Other"}

	fratPartX = [2]float64{504, 521}
	fratPartY = [][5]float64{
		{203, 213, 224, 236, 248},
		{250, 260.5, 272, 284, 295},
		{297, 307, 318, 330, 341},
		{344, 354, 366, 377, 388},
	}

	fratBandY = [2]float64{502, 514}
	fratBands = map[string][2]float64{
		RiskLow:    {216.5, 248},
		RiskMedium: {267, 318},
		RiskHigh:   {342, 374},
	}
)

// frat scores the Falls Risk Assessment Tool
type frat struct{}

func (frat) Name() string { return FRAT }

func (frat) Rules() Rules {
	keys := append([]string{fratFalls}, fratScored...)
	keys = append(keys, fratOverrides...)
	keys = append(keys, fratChecklist...)
	return Rules{Keys: append(keys, "Other_desc"), DefaultEmpty: []string{"Other_desc"}}
}

func (frat) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(FRAT)
	res.copyAnswers(answers)
	rd := newReader(FRAT, answers)

	// Recent falls is scored 2, 4, 6 or 8
	falls := rd.scale(fratFalls, 2, 8)
	if rd.err == nil && falls%2 != 0 {
		rd.fail(fratFalls, "In column '%s', the field for '%s' must be 2, 4, 6 or 8, got %d", FRAT, fratFalls, falls)
	}
	if rd.err == nil {
		row := falls/2 - 1
		res.box(0, fratPartX[0], fratPartY[0][row], fratPartX[1], fratPartY[0][row+1])
	}
	total := falls

	for i, key := range fratScored {
		score := rd.scale(key, 1, 4)
		if rd.err != nil {
			continue
		}
		total += score
		res.box(0, fratPartX[0], fratPartY[i+1][score-1], fratPartX[1], fratPartY[i+1][score])
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	for _, key := range answers.Keys() {
		if answers.Get(key).IsYes() {
			res.check(key)
		}
	}

	override := answers.Get(fratOverrides[0]).IsYes() || answers.Get(fratOverrides[1]).IsYes()
	risk := ClassifyFallsRisk(total, override)
	if x, ok := fratBands[risk]; ok {
		res.box(0, x[0], fratBandY[0], x[1], fratBandY[1])
	}

	res.Totals["total"] = float64(total)
	res.Fields.Set("total", itoa(total))
	res.Fields.Set("risk", risk)
	return res, nil
}

// ClassifyFallsRisk bands a FRAT total. The bands are inclusive as printed
// on the form; totals below 5 fall in no band and return "".
func ClassifyFallsRisk(total int, override bool) string {
	switch {
	case override || total >= 16:
		return RiskHigh
	case total >= 5 && total <= 11:
		return RiskMedium
	case total >= 12 && total <= 15:
		return RiskLow
	default:
		return ""
	}
}
