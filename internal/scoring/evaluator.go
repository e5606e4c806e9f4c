package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"pmtctportal/internal/spec"
)

// EvaluateSection walks a section's question graph against the response store
// and resolves a single section result. The walk follows the declared
// sequence through continue/jump edges; the first terminal grade wins and
// later answers are never consulted. The function is pure: no state survives
// between calls, and identical inputs always produce identical results.
//
// The section spec must come from a validated Document; evaluation does not
// re-check specification invariants.
func EvaluateSection(sec *spec.Section, resp Responses) (SectionResult, []Warning) {
	res := SectionResult{SectionID: sec.ID}

	if sec.NAOption && resp.NotApplicable(sec.NAKey()) {
		res.Status = StatusNotApplicable
		return res, nil
	}

	ev := &evaluation{sec: sec, resp: resp}
	ev.computeFields()

	var chain []int
	for i := range sec.Questions {
		if sec.Questions[i].Scoring != nil {
			chain = append(chain, i)
		}
	}
	if len(chain) == 0 {
		res.Status = StatusNotAnswered
		return res, ev.warnings
	}

	visited := make(map[int]bool, len(chain))
	step := 0
	pos := 0
	for {
		idx := chain[pos]
		if visited[idx] {
			// unreachable with a validated spec
			ev.warn(sec.Questions[idx].ID, "", "cycle in question chain")
			res.Status = StatusNotAnswered
			res.DecidingQuestion = sec.Questions[idx].ID
			return res, ev.warnings
		}
		visited[idx] = true

		q := &sec.Questions[idx]
		out, answered := ev.resolve(q)
		if !answered {
			if step > 0 {
				ev.warn(q.ID, "", "chain incomplete: question not answered")
			}
			res.Status = StatusNotAnswered
			res.DecidingQuestion = q.ID
			return res, ev.warnings
		}
		if out.Terminal() {
			res.Status = StatusGraded
			res.Grade = out.Grade
			res.DecidingQuestion = q.ID
			return res, ev.warnings
		}

		step++
		if out.Goto != "" {
			next := -1
			for p, ci := range chain {
				if sec.Questions[ci].ID == out.Goto {
					next = p
					break
				}
			}
			if next < 0 {
				ev.warn(q.ID, "", fmt.Sprintf("jump target %q not scorable", out.Goto))
				res.Status = StatusNotAnswered
				res.DecidingQuestion = q.ID
				return res, ev.warnings
			}
			pos = next
			continue
		}
		pos++
		if pos >= len(chain) {
			ev.warn(q.ID, "", "continue outcome past last scorable question")
			res.Status = StatusNotAnswered
			res.DecidingQuestion = q.ID
			return res, ev.warnings
		}
	}
}

// EvaluateAll evaluates every scorable section of the document and aggregates
// the results under the given policy.
func EvaluateAll(doc *spec.Document, resp Responses, policy Policy) (AssessmentResult, []Warning) {
	var (
		results  []SectionResult
		warnings []Warning
	)
	for _, sec := range doc.ScorableSections() {
		r, ws := EvaluateSection(sec, resp)
		results = append(results, r)
		warnings = append(warnings, ws...)
	}
	return Aggregate(results, policy), warnings
}

type evaluation struct {
	sec      *spec.Section
	resp     Responses
	fields   map[string]float64
	warnings []Warning
}

func (ev *evaluation) warn(question, field, detail string) {
	ev.warnings = append(ev.warnings, Warning{
		SectionID:  ev.sec.ID,
		QuestionID: question,
		Field:      field,
		Detail:     detail,
	})
}

// computeFields resolves every data-table field in the section, numeric ones
// from the response store and calculated ones from their formulas, in
// declared order so later formulas can reference earlier results. Malformed
// or missing operands produce warnings and leave the field unset.
func (ev *evaluation) computeFields() {
	ev.fields = make(map[string]float64)
	for qi := range ev.sec.Questions {
		q := &ev.sec.Questions[qi]
		for _, f := range q.Fields {
			if f.Numeric {
				v, present, err := ev.resp.Float(f.ID)
				if err != nil {
					ev.warn(q.ID, f.ID, "malformed numeric value: "+err.Error())
					continue
				}
				if present {
					ev.fields[f.ID] = v
				}
				continue
			}
			v, ok := ev.computeFormula(q.ID, f)
			if ok {
				ev.fields[f.ID] = v
			}
		}
	}
}

func (ev *evaluation) computeFormula(questionID string, f spec.Field) (float64, bool) {
	switch f.Formula.Kind {
	case spec.FormulaRatio:
		num, okN := ev.fields[f.Formula.Num]
		den, okD := ev.fields[f.Formula.Den]
		if !okN || !okD {
			return 0, false
		}
		if den == 0 {
			ev.warn(questionID, f.ID, "ratio denominator "+f.Formula.Den+" is zero")
			return 0, false
		}
		return num / den * 100, true
	case spec.FormulaAverage:
		sum := 0.0
		for _, term := range f.Formula.Terms {
			v, ok := ev.fields[term]
			if !ok {
				return 0, false
			}
			sum += v
		}
		return sum / float64(len(f.Formula.Terms)), true
	}
	return 0, false
}

// resolve computes a single question's outcome. The second return is false
// when the question must be treated as not answered.
func (ev *evaluation) resolve(q *spec.Question) (spec.Outcome, bool) {
	switch q.Scoring.Kind {
	case spec.RuleDirect:
		return ev.resolveDirect(q)
	case spec.RuleAllAny:
		return ev.resolveAllAny(q)
	case spec.RuleThreshold:
		return ev.resolveThreshold(q)
	case spec.RuleFieldDerived:
		v, ok := ev.fields[q.Scoring.Field]
		if !ok {
			return spec.Outcome{}, false
		}
		return bucketOutcome(q.Scoring.Buckets, v), true
	case spec.RulePercentage:
		return ev.resolveChartReview(q)
	case spec.RuleRowCount:
		return ev.resolveRowCount(q)
	}
	return spec.Outcome{}, false
}

func (ev *evaluation) resolveDirect(q *spec.Question) (spec.Outcome, bool) {
	ans, ok := ev.resp.Answer(q.ID)
	if !ok {
		return spec.Outcome{}, false
	}
	out, ok := q.Scoring.Answers[strings.ToLower(ans)]
	if !ok {
		ev.warn(q.ID, "", fmt.Sprintf("unrecognized answer %q", ans))
		return spec.Outcome{}, false
	}
	return out, true
}

// resolveAllAny applies the any-negative / all-affirmative rule over the
// question's sub-items. A single explicit negative decides immediately. For
// checkbox questions an unticked item counts as negative once anything in the
// group was submitted; for explicit yes/no groups every item must be answered
// before all-affirmative can be claimed.
func (ev *evaluation) resolveAllAny(q *spec.Question) (spec.Outcome, bool) {
	checkbox := q.Type == spec.TypeMultiCheckbox
	answered := 0
	negatives := 0
	for _, item := range q.Items {
		yes, ok := ev.resp.YesNo(q.SubItemID(item))
		if !ok {
			continue
		}
		answered++
		if !yes {
			negatives++
		}
	}
	if answered == 0 {
		return spec.Outcome{}, false
	}
	if negatives > 0 {
		return q.Scoring.AnyNegative, true
	}
	if answered < len(q.Items) {
		if checkbox {
			// unticked boxes are negatives
			return q.Scoring.AnyNegative, true
		}
		ev.warn(q.ID, "", fmt.Sprintf("%d of %d items answered", answered, len(q.Items)))
		return spec.Outcome{}, false
	}
	return q.Scoring.AllAffirmative, true
}

func (ev *evaluation) resolveThreshold(q *spec.Question) (spec.Outcome, bool) {
	v, present, err := ev.resp.Float(q.ID)
	if err != nil {
		ev.warn(q.ID, "", "malformed numeric value: "+err.Error())
		return spec.Outcome{}, false
	}
	if !present {
		return spec.Outcome{}, false
	}
	return bucketOutcome(q.Scoring.Buckets, v), true
}

// resolveChartReview counts affirmative cells across the services-by-charts
// grid, excluding not-applicable and blank cells from the eligible total, and
// buckets the resulting percentage.
func (ev *evaluation) resolveChartReview(q *spec.Question) (spec.Outcome, bool) {
	affirmative, eligible := 0, 0
	for _, svc := range q.Services {
		for chart := 1; chart <= q.Charts; chart++ {
			id := q.CellID(svc, strconv.Itoa(chart))
			v, present := ev.resp.Answer(id)
			if !present {
				continue
			}
			switch strings.ToLower(v) {
			case "na", "n/a":
				continue
			case "yes", "y", "true":
				affirmative++
				eligible++
			case "no", "n", "false":
				eligible++
			default:
				ev.warn(q.ID, id, fmt.Sprintf("unrecognized cell value %q", v))
			}
		}
	}
	if eligible == 0 {
		return spec.Outcome{}, false
	}
	pct := float64(affirmative) / float64(eligible) * 100
	return bucketOutcome(q.Scoring.Buckets, pct), true
}

// resolveRowCount grades each checklist row by its count of affirmative
// columns and returns the worst row's outcome. Rows with no answered cells
// are skipped; within an answered row a missing cell counts as negative.
func (ev *evaluation) resolveRowCount(q *spec.Question) (spec.Outcome, bool) {
	worst := spec.Outcome{}
	scored := false
	for _, row := range q.Items {
		count, answered := 0, 0
		for _, col := range q.Columns {
			yes, ok := ev.resp.YesNo(q.CellID(row, col))
			if !ok {
				continue
			}
			answered++
			if yes {
				count++
			}
		}
		if answered == 0 {
			continue
		}
		out := bucketOutcome(q.Scoring.Buckets, float64(count))
		if !scored || out.Grade < worst.Grade {
			worst = out
			scored = true
		}
	}
	if !scored {
		return spec.Outcome{}, false
	}
	return worst, true
}

// bucketOutcome picks the bucket a value belongs to: the highest bucket whose
// lower bound does not exceed the value. Lower bounds are inclusive, so a
// value sitting exactly on a boundary belongs to the bucket it opens.
func bucketOutcome(buckets []spec.Bucket, v float64) spec.Outcome {
	chosen := buckets[0]
	for _, b := range buckets[1:] {
		if v >= b.Lo {
			chosen = b
		}
	}
	return chosen.Outcome
}
