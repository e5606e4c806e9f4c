package spec

import (
	"fmt"
	"strings"
)

// Grade is the four-point ordinal score assigned to a section,
// red being the worst outcome and dark green the best.
type Grade int

const (
	GradeRed Grade = iota + 1
	GradeYellow
	GradeLightGreen
	GradeDarkGreen
)

var gradeNames = map[Grade]string{
	GradeRed:        "red",
	GradeYellow:     "yellow",
	GradeLightGreen: "light_green",
	GradeDarkGreen:  "dark_green",
}

// Hex fills used by the report renderers, matching the tool's
// traffic-light convention.
var gradeColors = map[Grade]string{
	GradeRed:        "DC3545",
	GradeYellow:     "FFC107",
	GradeLightGreen: "90EE90",
	GradeDarkGreen:  "006400",
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

// Color returns the hex fill color for this grade.
func (g Grade) Color() string {
	return gradeColors[g]
}

// Valid reports whether g is one of the four defined grades.
func (g Grade) Valid() bool {
	return g >= GradeRed && g <= GradeDarkGreen
}

// ParseGrade parses a grade name as it appears in the specification document.
func ParseGrade(s string) (Grade, error) {
	for g, name := range gradeNames {
		if name == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// QuestionType is the closed vocabulary of question kinds.
type QuestionType string

const (
	TypeYesNo          QuestionType = "yes_no"
	TypeYesNoWithText  QuestionType = "yes_no_with_text"
	TypeMultiYesNo     QuestionType = "multi_yes_no"
	TypePercentage     QuestionType = "percentage_input"
	TypeNumber         QuestionType = "number_input"
	TypeDataEntryTable QuestionType = "data_entry_table"
	TypeChartReview    QuestionType = "chart_review_table"
	TypeChecklistTable QuestionType = "checklist_table"
	TypeMultiCheckbox  QuestionType = "multi_checkbox"
	TypeRadio          QuestionType = "radio"
	TypeTextInput      QuestionType = "text_input"
	TypeTextArea       QuestionType = "text_area"
)

var questionTypes = map[QuestionType]bool{
	TypeYesNo: true, TypeYesNoWithText: true, TypeMultiYesNo: true,
	TypePercentage: true, TypeNumber: true, TypeDataEntryTable: true,
	TypeChartReview: true, TypeChecklistTable: true, TypeMultiCheckbox: true,
	TypeRadio: true, TypeTextInput: true, TypeTextArea: true,
}

// Outcome is the resolved effect of answering a question: either a terminal
// grade, a continuation to the next scorable question in sequence, or a jump
// to a named question.
type Outcome struct {
	Grade Grade
	Next  bool
	Goto  string
}

// Terminal reports whether the outcome ends the section traversal.
func (o Outcome) Terminal() bool { return o.Grade != 0 }

func (o Outcome) String() string {
	switch {
	case o.Grade != 0:
		return o.Grade.String()
	case o.Goto != "":
		return "goto:" + o.Goto
	default:
		return "next"
	}
}

// RuleKind discriminates the scoring rule variants.
type RuleKind int

const (
	// RuleDirect maps an answer token straight to an outcome.
	RuleDirect RuleKind = iota + 1
	// RuleAllAny aggregates sub-item answers: any negative vs. all affirmative.
	RuleAllAny
	// RuleThreshold buckets a submitted numeric or percentage value.
	RuleThreshold
	// RuleFieldDerived buckets a value computed from sibling fields.
	RuleFieldDerived
	// RulePercentage buckets the affirmative share of a review grid.
	RulePercentage
	// RuleRowCount grades each checklist row by its affirmative count and
	// takes the worst row.
	RuleRowCount
)

// Bucket is one ordered slice of a threshold mapping. Lo is inclusive; the
// bucket extends up to the next bucket's Lo (the top bucket is unbounded).
type Bucket struct {
	Lo        float64
	Unbounded bool // open below; always the first bucket
	Outcome   Outcome
	Raw       string // original range expression, kept for reports
}

// Rule is a validated scoring rule. Exactly the fields relevant to Kind are set.
type Rule struct {
	Kind           RuleKind
	Answers        map[string]Outcome // RuleDirect
	AnyNegative    Outcome            // RuleAllAny
	AllAffirmative Outcome            // RuleAllAny
	Field          string             // RuleFieldDerived
	Buckets        []Bucket           // threshold-based kinds, sorted by Lo
}

// FormulaKind discriminates the two derived-field shapes the tool uses.
type FormulaKind int

const (
	// FormulaRatio is (numerator / denominator) * 100.
	FormulaRatio FormulaKind = iota + 1
	// FormulaAverage is (f1 + f2 + ... + fn) / n.
	FormulaAverage
)

// Formula is a parsed derived-field expression.
type Formula struct {
	Kind  FormulaKind
	Num   string   // FormulaRatio
	Den   string   // FormulaRatio
	Terms []string // FormulaAverage
	Raw   string
}

// Field is a single column of a data entry table.
type Field struct {
	ID      string
	Label   string
	Numeric bool // false for calculated fields
	Formula *Formula
}

// Dependency declares the predecessor question and the answer value(s) that
// activate this question.
type Dependency struct {
	Question string
	Answers  []string
}

// Question is one node of a section's question graph.
type Question struct {
	ID           string
	Text         string
	Instructions string
	Note         string
	Type         QuestionType
	Items        []string // sub-items for multi_yes_no / multi_checkbox / checklist rows
	Columns      []string // checklist_table column headings after the row label
	Services     []string // chart_review_table row labels
	Charts       int      // chart_review_table column count
	Options      []string // radio / unscored multi_checkbox choices
	Fields       []Field
	DependsOn    *Dependency
	Scoring      *Rule
}

// SubItemID derives the deterministic response key for one of the question's
// sub-items.
func (q *Question) SubItemID(item string) string {
	return q.ID + "." + Slug(item)
}

// CellID derives the response key for a grid cell (checklist rows and chart
// review entries).
func (q *Question) CellID(row, col string) string {
	return q.ID + "." + Slug(row) + "." + Slug(col)
}

// Section is a named, independently gradable group of questions.
type Section struct {
	ID           string
	Title        string
	Standard     string
	Instructions string
	NAOption     bool
	Questions    []Question
}

// NAKey is the response key that marks this section not applicable.
func (s *Section) NAKey() string { return s.ID + ".na" }

// Scorable reports whether the section carries any scoring rules at all.
// Purely informational sections (free-text and placement questions) are
// captured but never graded.
func (s *Section) Scorable() bool {
	for i := range s.Questions {
		if s.Questions[i].Scoring != nil {
			return true
		}
	}
	return false
}

// Question returns the question with the given id, or nil.
func (s *Section) Question(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// Document is the immutable assessment specification, constructed once at
// startup and shared read-only across requests.
type Document struct {
	Title    string
	Sections []Section
}

// Section returns the section with the given id, or nil.
func (d *Document) Section(id string) *Section {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// ScorableSections returns the sections that participate in grading, in
// declared order.
func (d *Document) ScorableSections() []*Section {
	out := make([]*Section, 0, len(d.Sections))
	for i := range d.Sections {
		if d.Sections[i].Scorable() {
			out = append(out, &d.Sections[i])
		}
	}
	return out
}

// Slug normalizes an item label into a response-key fragment: lowercase,
// runs of non-alphanumerics collapsed to single underscores.
func Slug(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// SpecificationError describes a malformed specification document. It is only
// ever produced at load time; evaluation assumes a validated document.
type SpecificationError struct {
	Section  string
	Question string
	Detail   string
}

func (e *SpecificationError) Error() string {
	switch {
	case e.Question != "":
		return fmt.Sprintf("spec: section %q question %q: %s", e.Section, e.Question, e.Detail)
	case e.Section != "":
		return fmt.Sprintf("spec: section %q: %s", e.Section, e.Detail)
	default:
		return "spec: " + e.Detail
	}
}

func specErr(section, question, format string, args ...interface{}) error {
	return &SpecificationError{Section: section, Question: question, Detail: fmt.Sprintf(format, args...)}
}
