package cohort

import (
	"regexp"
	"sort"
	"strings"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/sparql"
)

// RequiredPrefixes are the prefix names the query templates refer to
var RequiredPrefixes = []string{"rdf", "dcterms", "foaf", "openvocab", "datasetvocab", "e1"}

var prefixName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// QueryBuilder renders the membership and record queries for one study.
// Every identifier is validated and emitted as a full IRI; nothing from a
// cohort or whitelist is spliced into the query text unchecked.
type QueryBuilder struct {
	study Study
}

// NewQueryBuilder binds a builder to a study
func NewQueryBuilder(study Study) *QueryBuilder {
	return &QueryBuilder{study: study}
}

// MembershipQuery selects ?patient for every entry referenced by the
// predicate's dataset whose property equals its value
func (qb *QueryBuilder) MembershipQuery(p InclusionPredicate) (string, error) {
	dataset, err := sparql.IRI(p.Dataset)
	if err != nil {
		return "", errors.Wrap(err, "inclusion dataset")
	}
	property, err := sparql.IRI(p.Property)
	if err != nil {
		return "", errors.Wrap(err, "inclusion property")
	}

	var sb strings.Builder
	if err := qb.writePrefixes(&sb); err != nil {
		return "", err
	}
	sb.WriteString("SELECT ?patient\nWHERE {\n")
	sb.WriteString("  ?entry dcterms:isReferencedBy " + dataset + " .\n")
	sb.WriteString("  ?entry " + property + " " + sparql.Literal(p.Value) + " .\n")
	sb.WriteString("  ?entry foaf:isPrimaryTopicOf ?" + VarPatient + " .\n")
	sb.WriteString("}\n")
	return sb.String(), nil
}

// Build renders the record query restricted to cohort and whitelist.
// Cohort ids are emitted in ascending order. An empty cohort or whitelist
// yields an empty IN list, which matches nothing.
func (qb *QueryBuilder) Build(c Cohort, whitelist []string) (string, error) {
	if _, err := NewMetricSlotMap(whitelist, qb.study.MetricPrefix); err != nil {
		return "", err
	}

	questions, err := iriList(qb.study.MetricBase, whitelist)
	if err != nil {
		return "", errors.Wrap(err, "whitelist")
	}
	patients, err := iriList(qb.study.SubjectBase, c.IDs())
	if err != nil {
		return "", errors.Wrap(err, "cohort")
	}

	var sb strings.Builder
	if err := qb.writePrefixes(&sb); err != nil {
		return "", err
	}
	sb.WriteString("SELECT DISTINCT ?patient ?cdate ?column ?question ?answer\nWHERE {\n")
	sb.WriteString("  ?measurement rdf:type datasetvocab:Measurement .\n")
	sb.WriteString("  ?measurement openvocab:csvCol ?" + VarColumn + " .\n")
	sb.WriteString("  ?measurement e1:for_question ?" + VarQuestion + " .\n")
	sb.WriteString("  FILTER (?" + VarQuestion + " IN (" + questions + "))\n")
	sb.WriteString("  ?measurement e1:hasAnswer ?" + VarAnswer + " .\n")
	sb.WriteString("  ?measurement foaf:isPrimaryTopicOf ?" + VarPatient + " .\n")
	sb.WriteString("  FILTER (?" + VarPatient + " IN (" + patients + "))\n")
	sb.WriteString("  ?measurement dcterms:created ?" + VarDate + " .\n")
	sb.WriteString("}\n")
	return sb.String(), nil
}

// writePrefixes emits PREFIX lines in name order
func (qb *QueryBuilder) writePrefixes(sb *strings.Builder) error {
	for _, name := range RequiredPrefixes {
		if _, ok := qb.study.Prefixes[name]; !ok {
			return errors.NewInvalidRequestError("study %s: prefix %q is not defined", qb.study.Name, name)
		}
	}

	names := make([]string, 0, len(qb.study.Prefixes))
	for name := range qb.study.Prefixes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !prefixName.MatchString(name) {
			return errors.NewInvalidRequestError("study %s: bad prefix name %q", qb.study.Name, name)
		}
		iri, err := sparql.IRI(qb.study.Prefixes[name])
		if err != nil {
			return errors.Wrapf(err, "prefix %s", name)
		}
		sb.WriteString("PREFIX " + name + ": " + iri + "\n")
	}
	return nil
}

func iriList(base string, ids []string) (string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id == "" {
			return "", errors.NewInvalidRequestError("empty identifier at position %d", i)
		}
		iri, err := sparql.IRI(base + id)
		if err != nil {
			return "", err
		}
		out[i] = iri
	}
	return strings.Join(out, ", "), nil
}
