package cohort

import (
	"sort"
	"time"

	"github.com/teranos/qntx-cohort/sparql"
)

// Reshaper turns record-query bindings into a Dataset
type Reshaper struct {
	// MetricPrefix is prepended to whitelist codes to match the trailing
	// segment of ?question (whitelist "7" matches ".../Q7" with prefix "Q")
	MetricPrefix string
}

// Reshape groups bindings by subject and date, places each answer in its
// whitelist slot and orders every subject's vectors by ascending date.
//
// A malformed binding fails with *ParseError; a second record for an
// occupied slot fails with *ConflictError. On error no Dataset is returned.
func (r Reshaper) Reshape(bindings []sparql.Binding, whitelist []string) (Dataset, error) {
	slots, err := NewMetricSlotMap(whitelist, r.MetricPrefix)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]map[time.Time]SubjectVector)
	for i, b := range bindings {
		rec, err := ParseRecord(i, b)
		if err != nil {
			return nil, err
		}

		slot, ok := slots.Slot(rec.MetricCode)
		if !ok {
			return nil, &ParseError{
				Index:    i,
				Variable: VarQuestion,
				Value:    rec.MetricCode,
				Reason:   "metric is not whitelisted",
			}
		}

		dates, ok := byDate[rec.SubjectID]
		if !ok {
			dates = make(map[time.Time]SubjectVector)
			byDate[rec.SubjectID] = dates
		}
		vec, ok := dates[rec.Date]
		if !ok {
			vec = NewSubjectVector(slots.Width())
			dates[rec.Date] = vec
		}

		if existing := vec[slot]; existing.Valid {
			return nil, &ConflictError{
				SubjectID:  rec.SubjectID,
				Date:       rec.Date,
				MetricCode: rec.MetricCode,
				Existing:   existing.Value,
				New:        rec.Value,
			}
		}
		vec[slot] = Value(rec.Value)
	}

	ds := make(Dataset, len(byDate))
	for subject, dates := range byDate {
		ds[subject] = orderByDate(dates)
	}
	return ds, nil
}

// orderByDate emits vectors in ascending date order, dropping the dates
func orderByDate(dates map[time.Time]SubjectVector) SubjectTimeSeries {
	keys := make([]time.Time, 0, len(dates))
	for d := range dates {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	ts := make(SubjectTimeSeries, len(keys))
	for i, d := range keys {
		ts[i] = dates[d]
	}
	return ts
}
