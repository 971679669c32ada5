// Package cohort turns questionnaire bindings from a SPARQL endpoint into
// per-subject, date-ordered, fixed-width vectors.
//
// A load runs Resolver -> QueryBuilder -> Endpoint -> Reshape and installs
// the result in a Catalog. Every stage is synchronous and batch oriented.
package cohort

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Record is one parsed binding of the record query
type Record struct {
	SubjectID  string
	Date       time.Time
	MetricCode string
	Value      int
}

// Cohort is the set of subject ids admitted into a load
type Cohort struct {
	ids map[string]struct{}
}

// NewCohort builds a cohort; duplicate ids collapse
func NewCohort(ids ...string) Cohort {
	c := Cohort{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}
	return c
}

// Len returns the number of members
func (c Cohort) Len() int {
	return len(c.ids)
}

// Contains reports whether id is a member
func (c Cohort) Contains(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// IDs returns the members in ascending order
func (c Cohort) IDs() []string {
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Slot is one metric position in a SubjectVector.
// An invalid slot means no record exists for that metric on that date.
type Slot struct {
	Value int
	Valid bool
}

// Value returns a populated slot
func Value(v int) Slot {
	return Slot{Value: v, Valid: true}
}

// Null is the empty slot
var Null = Slot{}

var jsonNull = []byte("null")

func (s Slot) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return jsonNull, nil
	}
	return strconv.AppendInt(nil, int64(s.Value), 10), nil
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*s = Null
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Value(v)
	return nil
}

// String renders the slot the way it appears in JSON
func (s Slot) String() string {
	if !s.Valid {
		return "null"
	}
	return strconv.Itoa(s.Value)
}

// SubjectVector is one date's readings for one subject, one slot per
// whitelisted metric
type SubjectVector []Slot

// NewSubjectVector returns width null slots
func NewSubjectVector(width int) SubjectVector {
	return make(SubjectVector, width)
}

// Clone returns an independent copy
func (v SubjectVector) Clone() SubjectVector {
	if v == nil {
		return nil
	}
	out := make(SubjectVector, len(v))
	copy(out, v)
	return out
}

// SubjectTimeSeries is a subject's vectors in ascending date order
type SubjectTimeSeries []SubjectVector

// Clone returns a deep copy
func (ts SubjectTimeSeries) Clone() SubjectTimeSeries {
	if ts == nil {
		return nil
	}
	out := make(SubjectTimeSeries, len(ts))
	for i, v := range ts {
		out[i] = v.Clone()
	}
	return out
}

// Dataset maps subject id to time series for one load
type Dataset map[string]SubjectTimeSeries

// SubjectIDs returns the subjects in ascending order
func (d Dataset) SubjectIDs() []string {
	out := make([]string, 0, len(d))
	for id := range d {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// VectorCount is the total number of vectors across all subjects
func (d Dataset) VectorCount() int {
	n := 0
	for _, ts := range d {
		n += len(ts)
	}
	return n
}

// Clone returns a deep copy
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	for id, ts := range d {
		out[id] = ts.Clone()
	}
	return out
}
