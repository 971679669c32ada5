package cohort

import (
	"context"
	"strings"
	"sync"

	"github.com/teranos/qntx-cohort/sparql"
)

// binding builds one record-query row for the UPittSSRI vocabulary
func binding(patient, date, question, answer string) sparql.Binding {
	return sparql.Binding{
		VarPatient:  {Type: "uri", Value: UPittSSRI.SubjectBase + patient},
		VarDate:     {Type: "literal", Value: date},
		VarColumn:   {Type: "literal", Value: "4"},
		VarQuestion: {Type: "uri", Value: ppliSSRI + question},
		VarAnswer:   {Type: "uri", Value: ppliSSRI + "vocab/answer/" + answer},
	}
}

func member(id string) sparql.Binding {
	return sparql.Binding{VarPatient: {Type: "uri", Value: UPittSSRI.SubjectBase + id}}
}

// scenarioOne is P1 answering Q1,Q2 on 2012-01-01 and Q1 on 2012-01-08
func scenarioOne() []sparql.Binding {
	return []sparql.Binding{
		binding("P1", "2012-01-01", "Q1", "3"),
		binding("P1", "2012-01-01", "Q2", "1"),
		binding("P1", "2012-01-08", "Q1", "2"),
	}
}

// fakeEndpoint answers membership queries with members and every other
// query with records
type fakeEndpoint struct {
	mu         sync.Mutex
	members    []sparql.Binding
	records    []sparql.Binding
	memberErr  error
	recordErr  error
	queries    []string
	beforeRead func()
}

func (f *fakeEndpoint) Query(ctx context.Context, query string) ([]sparql.Binding, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	hook := f.beforeRead
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(query, "dcterms:isReferencedBy") {
		if f.memberErr != nil {
			return nil, f.memberErr
		}
		return f.members, nil
	}
	if hook != nil {
		hook()
	}
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return f.records, nil
}

func (f *fakeEndpoint) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
