package cohort

import (
	"strconv"
	"strings"
	"time"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/sparql"
)

// Variables projected by the record query
const (
	VarPatient  = "patient"
	VarDate     = "cdate"
	VarColumn   = "column"
	VarQuestion = "question"
	VarAnswer   = "answer"
)

// ParseDate reads a hyphen-separated Y-M-D date; parts need not be zero padded.
// The date must exist on the calendar.
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, errors.Newf("date %q: want 3 hyphen-separated parts, got %d", s, len(parts))
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "date %q", s)
		}
		ymd[i] = n
	}
	if ymd[0] < 1 || ymd[0] > 9999 {
		return time.Time{}, errors.Newf("date %q: year must be in 1..9999", s)
	}
	t := time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 2012-02-30 to March; reject instead
	if t.Year() != ymd[0] || int(t.Month()) != ymd[1] || t.Day() != ymd[2] {
		return time.Time{}, errors.Newf("date %q is not on the calendar", s)
	}
	return t, nil
}

// ParseRecord interprets binding index of the record query
func ParseRecord(index int, b sparql.Binding) (Record, error) {
	var rec Record

	get := func(name string) (string, error) {
		v, ok := b.Value(name)
		if !ok {
			return "", &ParseError{Index: index, Variable: name, Reason: "unbound"}
		}
		return v, nil
	}

	patient, err := get(VarPatient)
	if err != nil {
		return rec, err
	}
	rec.SubjectID = sparql.TrailingSegment(patient)
	if rec.SubjectID == "" {
		return rec, &ParseError{Index: index, Variable: VarPatient, Value: patient, Reason: "no subject id after final '/'"}
	}

	date, err := get(VarDate)
	if err != nil {
		return rec, err
	}
	if rec.Date, err = ParseDate(date); err != nil {
		return rec, &ParseError{Index: index, Variable: VarDate, Value: date, Reason: "not a Y-M-D calendar date"}
	}

	question, err := get(VarQuestion)
	if err != nil {
		return rec, err
	}
	rec.MetricCode = sparql.TrailingSegment(question)
	if rec.MetricCode == "" {
		return rec, &ParseError{Index: index, Variable: VarQuestion, Value: question, Reason: "no metric code after final '/'"}
	}

	answer, err := get(VarAnswer)
	if err != nil {
		return rec, err
	}
	if rec.Value, err = strconv.Atoi(sparql.TrailingSegment(answer)); err != nil {
		return rec, &ParseError{Index: index, Variable: VarAnswer, Value: answer, Reason: "trailing segment is not an integer"}
	}

	return rec, nil
}
