package cohort

import (
	"fmt"
	"time"

	"github.com/teranos/qntx-cohort/errors"
)

// DateLayout formats record dates in messages and storage
const DateLayout = "2006-01-02"

// ParseError reports a binding that is not a well-formed Record.
// errors.Is(err, errors.ErrParse) holds for it.
type ParseError struct {
	Index    int    // position of the binding in the result set
	Variable string // offending variable, e.g. "cdate"
	Value    string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("binding %d: %s: %s", e.Index, e.Variable, e.Reason)
	}
	return fmt.Sprintf("binding %d: %s %q: %s", e.Index, e.Variable, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return errors.ErrParse
}

// ConflictError reports two records for the same subject, date and metric.
// errors.Is(err, errors.ErrConflict) holds for it.
type ConflictError struct {
	SubjectID  string
	Date       time.Time
	MetricCode string
	Existing   int
	New        int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("subject %s already has %s=%d on %s, refusing %d",
		e.SubjectID, e.MetricCode, e.Existing, e.Date.Format(DateLayout), e.New)
}

func (e *ConflictError) Unwrap() error {
	return errors.ErrConflict
}
