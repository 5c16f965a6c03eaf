package instrument

import (
	"strconv"

	"github.com/a3tai/assessment-forms/internal/record"
)

var (
	kidsSections = [][]string{
		intKeys(11, 16),
		intKeys(21, 25),
		intKeys(31, 34),
		intKeys(41, 45),
		intKeys(51, 59),
		intKeys(61, 65),
	}
	kidsSchoolItems = intKeys(55, 59)
)

// whodasKids scores the 34-item child and youth WHODAS. Keys are integers
// whose tens digit is the section; the school half of section 5 is optional.
type whodasKids struct{}

func (whodasKids) Name() string { return WHODASKIDS }

func (whodasKids) Rules() Rules {
	var keys []string
	for _, s := range kidsSections {
		keys = append(keys, s...)
	}
	return Rules{Keys: keys, AllOrNothing: kidsSchoolItems}
}

func (whodasKids) Score(_ record.General, answers *record.Answers, _ Resources) (*Result, error) {
	res := newResult(WHODASKIDS)
	res.copyAnswers(answers)
	rd := newReader(WHODASKIDS, answers)

	total := 0
	for _, section := range []int{1, 2, 3, 4, 6} {
		sum, count := 0, 0
		for _, key := range answers.Keys() {
			if n, err := strconv.Atoi(key); err == nil && n/10 == section {
				sum += rd.whole(key)
				count++
			}
		}
		name := itoa(section)
		if count == 0 {
			rd.fail(name, "In column '%s', section %s has no answers", WHODASKIDS, name)
			continue
		}
		total += sum
		res.Fields.Set(name+"_total", fraction(sum, count*5))
		res.Fields.Set(name+"_avg", percent(round(float64(sum)/float64(count*5)*100, 1)))
	}

	daily := 0
	for _, key := range intKeys(51, 54) {
		daily += rd.whole(key)
	}
	total += daily
	res.Fields.Set("5_total", fraction(daily, 20))
	res.Fields.Set("5_avg", percent(round(float64(daily)/20*100, 1)))

	if allMissing(answers, kidsSchoolItems) {
		for _, key := range kidsSchoolItems {
			res.Fields.Set(key, notApplicable)
		}
		res.Fields.Set("5_total2", notApplicable)
		res.Fields.Set("5_avg2", notApplicable)
		res.Strikes = append(res.Strikes, Strike{Page: 1, From: Point{36.5, 476.2}, To: Point{505, 337}, Width: 2})
		total += 25
	} else {
		school := 0
		for _, key := range kidsSchoolItems {
			school += rd.whole(key)
		}
		total += school
		res.Fields.Set("5_total2", fraction(school, 25))
		res.Fields.Set("5_avg2", percent(round(float64(school)/25*100, 1)))
	}

	if err := rd.done(); err != nil {
		return nil, err
	}

	res.Totals["total"] = float64(total)
	res.Totals["score"] = round(float64(total)/34, 2)
	res.Fields.Set("percentage", "Score: "+decimal(round(float64(total)/34, 2))+"/5 = "+percent(round(float64(total)/1.7, 1)))
	res.Fields.Set("total", "Total: "+fraction(total, 170))
	return res, nil
}
