package instrument

import (
	"fmt"
	"strings"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/record"
)

// HonosResource holds one line per question; options are separated by '_'
// and indexed by the rating, each option split into printed lines by '*'.
const HonosResource = "honos.txt"

// honosNoProblems is printed once per question, so its occurrence index is
// the question's position.
const honosNoProblems = "no problems of this kind during the period rated"

var (
	honosQuestions = intKeys(1, 12)
	honosFlags     = letters('A', 'J')

	// Each problem flag of question 8 highlights its label and its list marker
	honosFlagPhrases = map[string][2]string{
		"A": {"A phobic", "A,"},
		"B": {"B anxiety", "B,"},
		"C": {"C obsessive-compulsive", "C,"},
		"D": {"D stress", "D,"},
		"E": {"E dissociative", "E,"},
		"F": {"F somatoform", "F,"},
		"G": {"G eating", "G,"},
		"H": {"H sleep", "H,"},
		"I": {"I sexual", "I,"},
		"J": {"J other", "J)"},
	}
)

// honos scores the Health of the Nation Outcome Scales
type honos struct{}

func (honos) Name() string { return HONOS }

func (honos) Rules() Rules {
	keys := append(append([]string{}, honosQuestions...), honosFlags...)
	return Rules{Keys: append(keys, "comment8"), DefaultEmpty: []string{"comment8"}}
}

func (honos) Score(_ record.General, answers *record.Answers, res Resources) (*Result, error) {
	out := newResult(HONOS)
	out.copyAnswers(answers)
	rd := newReader(HONOS, answers)

	ratings := make([]int, len(honosQuestions))
	for i, key := range honosQuestions {
		ratings[i] = rd.scale(key, 0, 4)
	}
	if err := rd.done(); err != nil {
		return nil, err
	}

	lines, err := res.Lines(HonosResource)
	if err != nil {
		return nil, ferrors.WrapResource(HonosResource, err).WithInstrument(HONOS)
	}
	if len(lines) < len(honosQuestions) {
		return nil, ferrors.WrapResource(HonosResource,
			fmt.Errorf("expected %d lines, found %d", len(honosQuestions), len(lines))).WithInstrument(HONOS)
	}

	total := 0
	for i, rating := range ratings {
		options := strings.Split(lines[i], "_")
		if rating >= len(options) {
			return nil, ferrors.NewScoring(HONOS, honosQuestions[i],
				"In column '%s', rating %d for '%s' has no matching option", HONOS, rating, honosQuestions[i])
		}
		total += rating
		for _, line := range strings.Split(options[rating], "*") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out.text(line, false, honosOccurrence(i, rating, line))
		}
	}

	for _, flag := range honosFlags {
		if answers.Get(flag).IsYes() {
			phrases := honosFlagPhrases[flag]
			out.text(phrases[0], true, 0)
			out.text(phrases[1], true, 0)
		}
	}

	out.Totals["total"] = float64(total)
	out.Fields.Set("total", fraction(total, 48))
	return out, nil
}

// honosOccurrence picks which printing of a repeated option to highlight.
// Question 9 repeats question 8's first option.
func honosOccurrence(question, rating int, line string) int {
	switch {
	case strings.EqualFold(line, honosNoProblems):
		return question
	case question == 8 && rating == 1:
		return 1
	default:
		return 0
	}
}
