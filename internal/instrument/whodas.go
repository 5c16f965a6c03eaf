package instrument

import (
	"strings"

	"github.com/a3tai/assessment-forms/internal/record"
)

const notApplicable = "N/A"

var (
	whodasSections = [][]string{
		prefixed("D", intKeys(11, 16)),
		prefixed("D", intKeys(21, 25)),
		prefixed("D", intKeys(31, 34)),
		prefixed("D", intKeys(41, 45)),
		prefixed("D", intKeys(51, 58)),
		prefixed("D", intKeys(61, 68)),
	}
	whodasWorkItems = []string{"D55", "D56", "D57", "D58"}
)

// whodas scores the WHODAS 2.0 36-item adult form. The work half of
// section 5 may be left blank, in which case it is struck through and the
// total is compensated by its maximum.
type whodas struct{}

func (whodas) Name() string { return WHODAS }

func (whodas) Rules() Rules {
	var keys []string
	for _, s := range whodasSections {
		keys = append(keys, s...)
	}
	return Rules{Keys: keys, AllOrNothing: whodasWorkItems}
}

func (whodas) Score(general record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(WHODAS)
	res.copyAnswers(answers)
	rd := newReader(WHODAS, answers)

	overall := make(map[string]int)
	for _, section := range []string{"1", "2", "3", "4", "6"} {
		total, count := 0, 0
		for _, key := range answers.Keys() {
			if strings.HasPrefix(key, "D"+section) {
				total += rd.whole(key)
				count++
			}
		}
		if count == 0 {
			rd.fail(section, "In column '%s', section %s has no answers", WHODAS, section)
			continue
		}
		overall[section] = total
		res.Fields.Set(section+"_overall", itoa(total))
		res.Fields.Set(section+"_avg", decimal(round(float64(total)/float64(count), 1)))
		res.Fields.Set(section+"_percent", percent(round(float64(total)/float64(count*5)*100, 1)))
	}

	household := 0
	for _, key := range []string{"D51", "D52", "D53", "D54"} {
		household += rd.whole(key)
	}
	res.Fields.Set("5_overall", itoa(household))
	res.Fields.Set("5_avg", decimal(round(float64(household)/4, 1)))
	res.Fields.Set("5_percent", percent(round(float64(household)/20*100, 1)))

	total := overall["1"] + overall["2"] + overall["3"] + overall["4"] + overall["6"] + household
	if allMissing(answers, whodasWorkItems) {
		for _, key := range whodasWorkItems {
			res.Fields.Set(key, notApplicable)
		}
		res.Fields.Set("5_overall2", notApplicable)
		res.Fields.Set("5_avg2", notApplicable)
		res.Fields.Set("5_percent2", "")
		res.Strikes = append(res.Strikes, Strike{Page: 1, From: Point{26, 363}, To: Point{583.7, 209.3}, Width: 2})
		total += 20
	} else {
		work := 0
		for _, key := range whodasWorkItems {
			work += rd.whole(key)
		}
		res.Fields.Set("5_overall2", itoa(work))
		res.Fields.Set("5_avg2", decimal(round(float64(work)/4, 1)))
		res.Fields.Set("5_percent2", percent(round(float64(work)/20*100, 1)))
		total += work
	}

	if err := rd.done(); err != nil {
		return nil, err
	}

	res.Totals["total"] = float64(total)
	res.Fields.Set("total", itoa(total))
	res.Fields.Set("avg", decimal(round(float64(total)/36, 1)))
	res.Fields.Set("percent", "Total Score: "+percent(round(float64(total)/180*100, 1)))

	switch strings.ToLower(strings.TrimSpace(general.Gender())) {
	case "m":
		res.check("male")
	case "f":
		res.check("female")
	}
	return res, nil
}

func allMissing(answers *record.Answers, keys []string) bool {
	for _, key := range keys {
		if !answers.Get(key).IsMissing() {
			return false
		}
	}
	return true
}
