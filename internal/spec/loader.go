package spec

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default assessment document, mirroring the national PMTCT tool. Deployments
// can point SPEC_PATH at a customized copy.
//
//go:embed pmtct.yaml
var defaultDocument []byte

// Load reads and validates the specification document. An empty path loads
// the embedded default. Any validation failure is a *SpecificationError and
// is fatal to the caller; evaluation never re-validates.
func Load(path string) (*Document, error) {
	if path == "" {
		return Parse(defaultDocument)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spec: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, compiles, and validates a specification document.
func Parse(data []byte) (*Document, error) {
	var raw docYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, specErr("", "", "decode: %v", err)
	}
	doc := &Document{Title: raw.Title}
	seen := map[string]bool{}
	for _, rs := range raw.Sections {
		if rs.ID == "" {
			return nil, specErr("", "", "section without id")
		}
		if seen[rs.ID] {
			return nil, specErr(rs.ID, "", "duplicate section id")
		}
		seen[rs.ID] = true
		sec, err := compileSection(rs)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, *sec)
	}
	if len(doc.Sections) == 0 {
		return nil, specErr("", "", "document has no sections")
	}
	for i := range doc.Sections {
		if err := validateSection(&doc.Sections[i]); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Raw document shapes. Decoded first, then compiled into the validated tree.

type docYAML struct {
	Title    string        `yaml:"title"`
	Sections []sectionYAML `yaml:"sections"`
}

type sectionYAML struct {
	ID           string         `yaml:"id"`
	Title        string         `yaml:"title"`
	Standard     string         `yaml:"standard"`
	Instructions string         `yaml:"instructions"`
	NAOption     bool           `yaml:"na_option"`
	Questions    []questionYAML `yaml:"questions"`
}

type questionYAML struct {
	ID           string       `yaml:"id"`
	Text         string       `yaml:"text"`
	Instructions string       `yaml:"instructions"`
	Note         string       `yaml:"note"`
	Type         string       `yaml:"type"`
	Items        []string     `yaml:"items"`
	Columns      []string     `yaml:"columns"`
	Services     []string     `yaml:"services"`
	Charts       int          `yaml:"charts"`
	Options      []string     `yaml:"options"`
	Fields       []fieldYAML  `yaml:"fields"`
	DependsOn    *dependsYAML `yaml:"depends_on"`
	Scoring      *ruleYAML    `yaml:"scoring"`
}

type dependsYAML struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Answers  []string `yaml:"answers"`
}

type ruleYAML struct {
	Answers       map[string]string `yaml:"answers"`
	AnyNo         string            `yaml:"any_no"`
	AllYes        string            `yaml:"all_yes"`
	Field         string            `yaml:"field"`
	Thresholds    map[string]string `yaml:"thresholds"`
	Method        string            `yaml:"method"`
	RowThresholds map[string]string `yaml:"row_thresholds"`
}

type fieldYAML struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Type    string `yaml:"type"`
	Formula string `yaml:"formula"`
}

func compileSection(rs sectionYAML) (*Section, error) {
	sec := &Section{
		ID:           rs.ID,
		Title:        rs.Title,
		Standard:     rs.Standard,
		Instructions: rs.Instructions,
		NAOption:     rs.NAOption,
	}
	seen := map[string]bool{}
	for _, rq := range rs.Questions {
		if rq.ID == "" {
			return nil, specErr(rs.ID, "", "question without id")
		}
		if seen[rq.ID] {
			return nil, specErr(rs.ID, rq.ID, "duplicate question id")
		}
		seen[rq.ID] = true
		q, err := compileQuestion(rs.ID, rq)
		if err != nil {
			return nil, err
		}
		sec.Questions = append(sec.Questions, *q)
	}
	return sec, nil
}

func compileQuestion(secID string, rq questionYAML) (*Question, error) {
	qt := QuestionType(rq.Type)
	if !questionTypes[qt] {
		return nil, specErr(secID, rq.ID, "unknown question type %q", rq.Type)
	}
	q := &Question{
		ID:           rq.ID,
		Text:         rq.Text,
		Instructions: rq.Instructions,
		Note:         rq.Note,
		Type:         qt,
		Items:        rq.Items,
		Columns:      rq.Columns,
		Services:     rq.Services,
		Charts:       rq.Charts,
		Options:      rq.Options,
	}
	for _, rf := range rq.Fields {
		f := Field{ID: rf.ID, Label: rf.Label}
		switch rf.Type {
		case "number", "":
			f.Numeric = true
		case "calculated":
			formula, err := parseFormula(rf.Formula)
			if err != nil {
				return nil, specErr(secID, rq.ID, "field %q: %v", rf.ID, err)
			}
			f.Formula = formula
		default:
			return nil, specErr(secID, rq.ID, "field %q: unknown type %q", rf.ID, rf.Type)
		}
		if f.ID == "" {
			return nil, specErr(secID, rq.ID, "field without id")
		}
		q.Fields = append(q.Fields, f)
	}
	if rq.DependsOn != nil {
		dep := &Dependency{Question: rq.DependsOn.Question}
		if rq.DependsOn.Answer != "" {
			dep.Answers = []string{rq.DependsOn.Answer}
		}
		dep.Answers = append(dep.Answers, rq.DependsOn.Answers...)
		if dep.Question == "" {
			return nil, specErr(secID, rq.ID, "depends_on without question")
		}
		q.DependsOn = dep
	}
	if rq.Scoring != nil {
		rule, err := compileRule(secID, rq.ID, qt, rq.Scoring, len(rq.Columns))
		if err != nil {
			return nil, err
		}
		q.Scoring = rule
	}
	return q, nil
}

func compileRule(secID, qID string, qt QuestionType, rr *ruleYAML, columns int) (*Rule, error) {
	switch {
	case rr.Method == "count_yes_per_row":
		buckets, err := parseCountBuckets(rr.RowThresholds, columns)
		if err != nil {
			return nil, specErr(secID, qID, "row_thresholds: %v", err)
		}
		return &Rule{Kind: RuleRowCount, Buckets: buckets}, nil

	case rr.Method == "percentage":
		buckets, err := parseBuckets(rr.Thresholds)
		if err != nil {
			return nil, specErr(secID, qID, "thresholds: %v", err)
		}
		return &Rule{Kind: RulePercentage, Buckets: buckets}, nil

	case rr.Field != "":
		buckets, err := parseBuckets(rr.Thresholds)
		if err != nil {
			return nil, specErr(secID, qID, "thresholds: %v", err)
		}
		return &Rule{Kind: RuleFieldDerived, Field: rr.Field, Buckets: buckets}, nil

	case len(rr.Thresholds) > 0:
		if qt != TypePercentage && qt != TypeNumber {
			return nil, specErr(secID, qID, "thresholds on non-numeric question type %q", qt)
		}
		buckets, err := parseBuckets(rr.Thresholds)
		if err != nil {
			return nil, specErr(secID, qID, "thresholds: %v", err)
		}
		return &Rule{Kind: RuleThreshold, Buckets: buckets}, nil

	case rr.AnyNo != "" || rr.AllYes != "":
		if rr.AnyNo == "" || rr.AllYes == "" {
			return nil, specErr(secID, qID, "all/any rule needs both any_no and all_yes")
		}
		anyNeg, err := parseOutcome(rr.AnyNo)
		if err != nil {
			return nil, specErr(secID, qID, "any_no: %v", err)
		}
		allAff, err := parseOutcome(rr.AllYes)
		if err != nil {
			return nil, specErr(secID, qID, "all_yes: %v", err)
		}
		return &Rule{Kind: RuleAllAny, AnyNegative: anyNeg, AllAffirmative: allAff}, nil

	case len(rr.Answers) > 0:
		answers := make(map[string]Outcome, len(rr.Answers))
		for ans, out := range rr.Answers {
			o, err := parseOutcome(out)
			if err != nil {
				return nil, specErr(secID, qID, "answer %q: %v", ans, err)
			}
			answers[strings.ToLower(ans)] = o
		}
		return &Rule{Kind: RuleDirect, Answers: answers}, nil
	}
	return nil, specErr(secID, qID, "empty scoring rule")
}

func parseOutcome(s string) (Outcome, error) {
	if s == "next" {
		return Outcome{Next: true}, nil
	}
	if target, ok := strings.CutPrefix(s, "goto:"); ok {
		if target == "" {
			return Outcome{}, fmt.Errorf("goto without target")
		}
		return Outcome{Goto: target}, nil
	}
	g, err := ParseGrade(s)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Grade: g}, nil
}

// rangeExpr is one parsed threshold range, held only during validation.
type rangeExpr struct {
	lo, hi       float64
	openBelow    bool // "<N"
	openAbove    bool // ">=N"
	hiExclusive  bool // "<N": hi is not part of the bucket
	outcome      Outcome
	raw          string
}

var exactRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

func parseRange(expr string, outcome Outcome) (rangeExpr, error) {
	e := rangeExpr{outcome: outcome, raw: expr}
	s := strings.ReplaceAll(expr, " ", "")
	switch {
	case strings.HasPrefix(s, "<"):
		v, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return e, fmt.Errorf("bad range %q", expr)
		}
		e.lo, e.hi = math.Inf(-1), v
		e.openBelow, e.hiExclusive = true, true
	case strings.HasPrefix(s, ">="):
		v, err := strconv.ParseFloat(s[2:], 64)
		if err != nil {
			return e, fmt.Errorf("bad range %q", expr)
		}
		e.lo, e.hi = v, math.Inf(1)
		e.openAbove = true
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || hi < lo {
			return e, fmt.Errorf("bad range %q", expr)
		}
		e.lo, e.hi = lo, hi
	case exactRe.MatchString(s):
		v, _ := strconv.ParseFloat(s, 64)
		e.lo, e.hi = v, v
	default:
		return e, fmt.Errorf("bad range %q", expr)
	}
	return e, nil
}

// parseBuckets turns an outcome→range mapping into the ordered bucket list
// and enforces that the ranges are contiguous and partition the value range.
func parseBuckets(thresholds map[string]string) ([]Bucket, error) {
	if len(thresholds) < 2 {
		return nil, fmt.Errorf("need at least two buckets")
	}
	exprs := make([]rangeExpr, 0, len(thresholds))
	for out, rng := range thresholds {
		o, err := parseOutcome(out)
		if err != nil {
			return nil, err
		}
		if o.Goto != "" {
			return nil, fmt.Errorf("goto outcomes are not allowed in thresholds")
		}
		e, err := parseRange(rng, o)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	sort.Slice(exprs, func(i, j int) bool { return exprs[i].lo < exprs[j].lo })
	for i := 0; i < len(exprs)-1; i++ {
		cur, next := exprs[i], exprs[i+1]
		gap := next.lo - cur.hi
		if cur.hiExclusive {
			if gap != 0 {
				return nil, fmt.Errorf("ranges %q and %q are not contiguous", cur.raw, next.raw)
			}
		} else if gap <= 0 || gap > 1 {
			return nil, fmt.Errorf("ranges %q and %q overlap or leave a gap", cur.raw, next.raw)
		}
	}
	last := exprs[len(exprs)-1]
	if !last.openAbove {
		return nil, fmt.Errorf("top range %q must be unbounded (>=N)", last.raw)
	}
	first := exprs[0]
	if !first.openBelow && first.lo != 0 {
		return nil, fmt.Errorf("bottom range %q must cover the range start", first.raw)
	}
	buckets := make([]Bucket, len(exprs))
	for i, e := range exprs {
		buckets[i] = Bucket{Lo: e.lo, Unbounded: e.openBelow, Outcome: e.outcome, Raw: e.raw}
	}
	return buckets, nil
}

var fractionRe = regexp.MustCompile(`^(\d+)/(\d+)$`)

// parseCountBuckets parses "k/n" row thresholds into count buckets. n must
// equal the number of gradable columns, and the top threshold must be n of n.
func parseCountBuckets(thresholds map[string]string, columns int) ([]Bucket, error) {
	if columns == 0 {
		return nil, fmt.Errorf("count_yes_per_row needs columns")
	}
	if len(thresholds) < 2 {
		return nil, fmt.Errorf("need at least two buckets")
	}
	buckets := make([]Bucket, 0, len(thresholds))
	for out, frac := range thresholds {
		o, err := parseOutcome(out)
		if err != nil {
			return nil, err
		}
		m := fractionRe.FindStringSubmatch(strings.ReplaceAll(frac, " ", ""))
		if m == nil {
			return nil, fmt.Errorf("bad fraction %q", frac)
		}
		k, _ := strconv.Atoi(m[1])
		n, _ := strconv.Atoi(m[2])
		if n != columns {
			return nil, fmt.Errorf("fraction %q does not match %d columns", frac, columns)
		}
		if k > n {
			return nil, fmt.Errorf("fraction %q exceeds column count", frac)
		}
		buckets = append(buckets, Bucket{Lo: float64(k), Outcome: o, Raw: frac})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Lo < buckets[j].Lo })
	for i := 0; i < len(buckets)-1; i++ {
		if buckets[i].Lo == buckets[i+1].Lo {
			return nil, fmt.Errorf("duplicate fraction %q", buckets[i+1].Raw)
		}
	}
	if buckets[len(buckets)-1].Lo != float64(columns) {
		return nil, fmt.Errorf("top fraction must be %d/%d", columns, columns)
	}
	// Counts below the lowest threshold fall into the lowest bucket.
	buckets[0].Unbounded = true
	return buckets, nil
}

var (
	ratioRe   = regexp.MustCompile(`^\((\w+)/(\w+)\)\*100$`)
	averageRe = regexp.MustCompile(`^\((\w+(?:\+\w+)+)\)/(\d+)$`)
)

// parseFormula accepts the two derived-field shapes the tool uses: a counted
// ratio expressed as a percentage, and an average of named sub-metrics.
func parseFormula(raw string) (*Formula, error) {
	if raw == "" {
		return nil, fmt.Errorf("calculated field without formula")
	}
	s := strings.ReplaceAll(raw, " ", "")
	if m := ratioRe.FindStringSubmatch(s); m != nil {
		return &Formula{Kind: FormulaRatio, Num: m[1], Den: m[2], Raw: raw}, nil
	}
	if m := averageRe.FindStringSubmatch(s); m != nil {
		terms := strings.Split(m[1], "+")
		n, _ := strconv.Atoi(m[2])
		if n != len(terms) {
			return nil, fmt.Errorf("formula %q divides %d terms by %d", raw, len(terms), n)
		}
		return &Formula{Kind: FormulaAverage, Terms: terms, Raw: raw}, nil
	}
	return nil, fmt.Errorf("unsupported formula %q", raw)
}

// validateSection enforces the cross-question invariants: dependency and jump
// references resolve, derived formulas reference declared fields, and every
// continue outcome has somewhere to go.
func validateSection(sec *Section) error {
	fieldIDs := map[string]bool{}
	for i := range sec.Questions {
		for _, f := range sec.Questions[i].Fields {
			fieldIDs[f.ID] = true
		}
	}

	position := map[string]int{}
	for i := range sec.Questions {
		position[sec.Questions[i].ID] = i
	}

	var scorable []int
	for i := range sec.Questions {
		if sec.Questions[i].Scoring != nil {
			scorable = append(scorable, i)
		}
	}
	lastScorable := -1
	if len(scorable) > 0 {
		lastScorable = scorable[len(scorable)-1]
	}

	for i := range sec.Questions {
		q := &sec.Questions[i]

		if q.DependsOn != nil {
			pos, ok := position[q.DependsOn.Question]
			if !ok {
				return specErr(sec.ID, q.ID, "depends_on references unknown question %q", q.DependsOn.Question)
			}
			if pos >= i {
				return specErr(sec.ID, q.ID, "depends_on must reference an earlier question")
			}
		}

		for _, f := range q.Fields {
			if f.Formula == nil {
				continue
			}
			for _, ref := range formulaRefs(f.Formula) {
				if !fieldIDs[ref] {
					return specErr(sec.ID, q.ID, "formula for %q references undeclared field %q", f.ID, ref)
				}
			}
		}

		if q.Scoring == nil {
			continue
		}
		switch q.Scoring.Kind {
		case RuleAllAny:
			if len(q.Items) == 0 {
				return specErr(sec.ID, q.ID, "all/any rule without items")
			}
		case RuleFieldDerived:
			if !fieldIDs[q.Scoring.Field] {
				return specErr(sec.ID, q.ID, "scoring field %q is not declared", q.Scoring.Field)
			}
		case RuleRowCount:
			if len(q.Items) == 0 || len(q.Columns) == 0 {
				return specErr(sec.ID, q.ID, "count_yes_per_row rule without items or columns")
			}
			for _, b := range q.Scoring.Buckets {
				if !b.Outcome.Terminal() {
					return specErr(sec.ID, q.ID, "count_yes_per_row outcomes must be grades")
				}
			}
		case RulePercentage:
			if len(q.Services) == 0 || q.Charts == 0 {
				return specErr(sec.ID, q.ID, "percentage rule without services or charts")
			}
		}
		for _, out := range ruleOutcomes(q.Scoring) {
			switch {
			case out.Next:
				if i >= lastScorable {
					return specErr(sec.ID, q.ID, "dangling continue: no scorable question follows")
				}
			case out.Goto != "":
				pos, ok := position[out.Goto]
				if !ok {
					return specErr(sec.ID, q.ID, "jump to unknown question %q", out.Goto)
				}
				if sec.Questions[pos].Scoring == nil {
					return specErr(sec.ID, q.ID, "jump target %q has no scoring rule", out.Goto)
				}
				if pos <= i {
					return specErr(sec.ID, q.ID, "jump target %q must come later in the section", out.Goto)
				}
			}
		}
	}
	return nil
}

func formulaRefs(f *Formula) []string {
	if f.Kind == FormulaRatio {
		return []string{f.Num, f.Den}
	}
	return f.Terms
}

func ruleOutcomes(r *Rule) []Outcome {
	var out []Outcome
	for _, o := range r.Answers {
		out = append(out, o)
	}
	if r.Kind == RuleAllAny {
		out = append(out, r.AnyNegative, r.AllAffirmative)
	}
	for _, b := range r.Buckets {
		out = append(out, b.Outcome)
	}
	return out
}
