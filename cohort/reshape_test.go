package cohort

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/sparql"
)

var upitt = Reshaper{MetricPrefix: "Q"}

func TestReshape_ScenarioOne(t *testing.T) {
	ds, err := upitt.Reshape(scenarioOne(), []string{"1", "2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"P1"}, ds.SubjectIDs())
	assert.Equal(t, SubjectTimeSeries{
		{Value(3), Value(1)},
		{Value(2), Null},
	}, ds["P1"])
}

func TestReshape_ScenarioTwoConflict(t *testing.T) {
	bindings := append(scenarioOne(), binding("P1", "2012-01-01", "Q1", "9"))

	ds, err := upitt.Reshape(bindings, []string{"1", "2"})
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "P1", conflict.SubjectID)
	assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), conflict.Date)
	assert.Equal(t, "Q1", conflict.MetricCode)
	assert.Equal(t, 3, conflict.Existing)
	assert.Equal(t, 9, conflict.New)
	assert.Contains(t, conflict.Error(), "2012-01-01")
}

func TestReshape_EqualDuplicateStillConflicts(t *testing.T) {
	bindings := append(scenarioOne(), binding("P1", "2012-1-1", "Q1", "3"))

	_, err := upitt.Reshape(bindings, []string{"1", "2"})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 3, conflict.Existing)
	assert.Equal(t, 3, conflict.New)
}

func TestReshape_WidthMatchesWhitelist(t *testing.T) {
	whitelist := []string{"1", "2", "3", "4", "5", "6", "7", "8", "10", "13"}
	bindings := []sparql.Binding{
		binding("P1", "2012-01-01", "Q13", "2"),
		binding("P2", "2012-02-01", "Q10", "0"),
		binding("P2", "2012-02-08", "Q1", "4"),
		binding("P3", "2012-03-01", "Q5", "1"),
	}

	ds, err := upitt.Reshape(bindings, whitelist)
	require.NoError(t, err)
	for subject, ts := range ds {
		for i, v := range ts {
			assert.Len(t, v, len(whitelist), "%s vector %d", subject, i)
		}
	}
	assert.Equal(t, Value(2), ds["P1"][0][9])
	assert.Equal(t, Value(0), ds["P2"][0][8])
}

func TestReshape_OrderIndependent(t *testing.T) {
	var bindings []sparql.Binding
	for _, p := range []string{"P1", "P2", "P3"} {
		for _, d := range []string{"2012-1-1", "2012-1-8", "2012-1-15", "2011-12-25"} {
			for _, q := range []string{"Q1", "Q2", "Q3"} {
				bindings = append(bindings, binding(p, d, q, "1"))
			}
		}
	}
	whitelist := []string{"1", "2", "3"}

	want, err := upitt.Reshape(bindings, whitelist)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]sparql.Binding(nil), bindings...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := upitt.Reshape(shuffled, whitelist)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReshape_OrdersByCalendarDate(t *testing.T) {
	// lexical order of these strings differs from calendar order
	bindings := []sparql.Binding{
		binding("P1", "2012-10-1", "Q1", "4"),
		binding("P1", "2012-9-30", "Q1", "3"),
		binding("P1", "2012-2-1", "Q1", "2"),
		binding("P1", "2011-12-31", "Q1", "1"),
	}

	ds, err := upitt.Reshape(bindings, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, SubjectTimeSeries{
		{Value(1)}, {Value(2)}, {Value(3)}, {Value(4)},
	}, ds["P1"])
}

func TestReshape_SameDateDifferentPadding(t *testing.T) {
	bindings := []sparql.Binding{
		binding("P1", "2012-01-08", "Q1", "2"),
		binding("P1", "2012-1-8", "Q2", "5"),
	}

	ds, err := upitt.Reshape(bindings, []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, SubjectTimeSeries{{Value(2), Value(5)}}, ds["P1"])
}

func TestReshape_MissingSlotIsNull(t *testing.T) {
	whitelist := []string{"1", "2", "3", "4", "5", "6", "7", "8", "10", "13"}
	var bindings []sparql.Binding
	for _, code := range whitelist {
		if code == "7" {
			continue
		}
		bindings = append(bindings, binding("P9", "2012-05-05", "Q"+code, "2"))
	}

	ds, err := upitt.Reshape(bindings, whitelist)
	require.NoError(t, err)
	require.Len(t, ds["P9"], 1)

	vec := ds["P9"][0]
	for i, s := range vec {
		if whitelist[i] == "7" {
			assert.False(t, s.Valid, "Q7 slot")
			continue
		}
		assert.Equal(t, Value(2), s, "slot %d", i)
	}
}

func TestReshape_ParseErrors(t *testing.T) {
	broken := func(mutate func(sparql.Binding)) []sparql.Binding {
		b := binding("P1", "2012-01-01", "Q1", "3")
		mutate(b)
		return []sparql.Binding{binding("P1", "2012-01-02", "Q1", "1"), b}
	}

	tests := []struct {
		name     string
		bindings []sparql.Binding
		variable string
	}{
		{
			name:     "bad date",
			bindings: broken(func(b sparql.Binding) { b[VarDate] = sparql.Term{Value: "2012/01/01"} }),
			variable: VarDate,
		},
		{
			name:     "impossible date",
			bindings: broken(func(b sparql.Binding) { b[VarDate] = sparql.Term{Value: "2012-2-30"} }),
			variable: VarDate,
		},
		{
			name:     "non-integer answer",
			bindings: broken(func(b sparql.Binding) { b[VarAnswer] = sparql.Term{Value: ppliSSRI + "vocab/answer/three"} }),
			variable: VarAnswer,
		},
		{
			name:     "metric not whitelisted",
			bindings: broken(func(b sparql.Binding) { b[VarQuestion] = sparql.Term{Value: ppliSSRI + "Q9"} }),
			variable: VarQuestion,
		},
		{
			name:     "unbound patient",
			bindings: broken(func(b sparql.Binding) { delete(b, VarPatient) }),
			variable: VarPatient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := upitt.Reshape(tt.bindings, []string{"1", "2"})
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.Is(err, errors.ErrParse))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, 1, pe.Index)
			assert.Equal(t, tt.variable, pe.Variable)
		})
	}
}

func TestReshape_DuplicateWhitelist(t *testing.T) {
	_, err := upitt.Reshape(scenarioOne(), []string{"1", "2", "1"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestReshape_Empty(t *testing.T) {
	ds, err := upitt.Reshape(nil, []string{"1"})
	require.NoError(t, err)
	assert.Empty(t, ds)
}
