package scoring

import (
	"strconv"
	"strings"
)

// Responses is the flat store of raw submitted values, keyed by question,
// sub-item, or field id. It is built once per submission and read-only during
// evaluation.
type Responses map[string]string

// Answer returns the trimmed raw value for an id. Empty values count as
// absent: a blank form field is "not answered", never a grade.
func (r Responses) Answer(id string) (string, bool) {
	v, ok := r[id]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// YesNo interprets an answer as an affirmative/negative token. The second
// return reports whether the id was answered with a recognizable token at all.
func (r Responses) YesNo(id string) (yes bool, ok bool) {
	v, ok := r.Answer(id)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "yes", "y", "true":
		return true, true
	case "no", "n", "false":
		return false, true
	}
	return false, false
}

// Float parses a numeric answer. Percentage signs are tolerated since field
// staff paste values like "85%".
func (r Responses) Float(id string) (float64, bool, error) {
	v, ok := r.Answer(id)
	if !ok {
		return 0, false, nil
	}
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, true, err
	}
	return f, true, nil
}

// NotApplicable reports whether the response store marks an id with the
// explicit not-applicable token.
func (r Responses) NotApplicable(id string) bool {
	v, ok := r.Answer(id)
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "na", "n/a", "yes", "true":
		return true
	}
	return false
}
