package instrument

import (
	"fmt"
	"strings"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/record"
)

// LawtonResource holds one line per section A-H; options are separated by
// '|' and a single option may span several printed lines separated by '*'.
const LawtonResource = "lawton.txt"

var lawtonSections = letters('A', 'H')

// lawton scores the Lawton-Brody IADL scale
type lawton struct{}

func (lawton) Name() string { return LAWTON }

func (lawton) Rules() Rules { return Rules{Keys: lawtonSections} }

func (lawton) Score(_ record.General, answers *record.Answers, res Resources) (*Result, error) {
	out := newResult(LAWTON)
	out.copyAnswers(answers)
	rd := newReader(LAWTON, answers)

	ans := make(map[string]int, len(lawtonSections))
	for _, s := range lawtonSections {
		ans[s] = rd.scale(s, 1, 5)
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	lines, err := res.Lines(LawtonResource)
	if err != nil {
		return nil, ferrors.WrapResource(LawtonResource, err).WithInstrument(LAWTON)
	}
	if len(lines) < len(lawtonSections) {
		return nil, ferrors.WrapResource(LawtonResource,
			fmt.Errorf("expected %d lines, found %d", len(lawtonSections), len(lines))).WithInstrument(LAWTON)
	}

	for i, s := range lawtonSections {
		options := strings.Split(lines[i], "|")
		choice := ans[s] - 1
		if choice >= len(options) {
			return nil, ferrors.NewScoring(LAWTON, s, "In column '%s', answer %d for '%s' has no matching option", LAWTON, ans[s], s)
		}
		for _, line := range strings.Split(options[choice], "*") {
			if line = strings.TrimSpace(line); line != "" {
				out.text(line, false, 0)
			}
		}
	}

	left := count(ans["A"] != 4, ans["B"] == 1, ans["C"] == 1, ans["D"] != 5)
	right := count(ans["E"] != 3, ans["F"] <= 3, ans["G"] == 1, ans["H"] != 3)

	out.Totals["left_total"] = float64(left)
	out.Totals["right_total"] = float64(right)
	out.Totals["total"] = float64(left + right)
	out.Fields.Set("left_total", itoa(left))
	out.Fields.Set("right_total", itoa(right))
	out.Fields.Set("total", itoa(left+right))
	return out, nil
}

func count(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}
