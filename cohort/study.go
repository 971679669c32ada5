package cohort

import (
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/teranos/qntx-cohort/errors"
)

// InclusionPredicate selects the cohort: subjects of every entry referenced
// by Dataset whose Property equals the literal Value.
type InclusionPredicate struct {
	Dataset  string `toml:"dataset"`
	Property string `toml:"property"`
	Value    string `toml:"value"`
}

// Study is one query template: where members come from, how subject and
// metric ids map to IRIs, and the default metric whitelist.
type Study struct {
	Name             string             `toml:"name"`
	Inclusion        InclusionPredicate `toml:"inclusion"`
	SubjectBase      string             `toml:"subject_base"`  // subject IRI = SubjectBase + id
	MetricBase       string             `toml:"metric_base"`   // metric IRI = MetricBase + whitelist code
	MetricPrefix     string             `toml:"metric_prefix"` // trailing segment of a metric IRI = MetricPrefix + code
	Prefixes         map[string]string  `toml:"prefixes"`
	DefaultWhitelist []string           `toml:"default_whitelist"`
}

// UPittSSRIName is the built-in study selector
const UPittSSRIName = "UPittSSRI"

const ppliSSRI = "http://purl.org/twc/semmdd/source/pican-wpic-pitt-edu/dataset/ppli-ssri/"

// UPittSSRI is the Pittsburgh SSRI study: members are entries with
// e1:term "0" (completed without early termination).
var UPittSSRI = Study{
	Name: UPittSSRIName,
	Inclusion: InclusionPredicate{
		Dataset:  ppliSSRI + "version/2012-09-08",
		Property: ppliSSRI + "vocab/enhancement/1/term",
		Value:    "0",
	},
	SubjectBase:  ppliSSRI + "ppli-hams.xls/typed/patient/",
	MetricBase:   ppliSSRI + "Q",
	MetricPrefix: "Q",
	Prefixes: map[string]string{
		"rdf":          "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"dcterms":      "http://purl.org/dc/terms/",
		"foaf":         "http://xmlns.com/foaf/0.1/",
		"openvocab":    "http://open.vocab.org/terms/",
		"datasetvocab": ppliSSRI + "vocab/",
		"e1":           ppliSSRI + "vocab/enhancement/1/",
	},
	DefaultWhitelist: []string{"1", "2", "3", "4", "5", "6", "7", "8", "10", "13"},
}

var (
	studiesMu sync.RWMutex
	studies   = map[string]Study{UPittSSRIName: UPittSSRI}
)

// LookupStudy returns a registered study
func LookupStudy(name string) (Study, error) {
	studiesMu.RLock()
	defer studiesMu.RUnlock()
	s, ok := studies[name]
	if !ok {
		return Study{}, errors.WithHintf(
			errors.NewInvalidRequestError("unknown study %q", name),
			"known studies: %v", studyNamesLocked())
	}
	return s, nil
}

// StudyNames lists registered studies in ascending order
func StudyNames() []string {
	studiesMu.RLock()
	defer studiesMu.RUnlock()
	return studyNamesLocked()
}

func studyNamesLocked() []string {
	names := make([]string, 0, len(studies))
	for n := range studies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterStudy adds or replaces a study after validating it
func RegisterStudy(s Study) error {
	if err := s.Validate(); err != nil {
		return err
	}
	studiesMu.Lock()
	studies[s.Name] = s
	studiesMu.Unlock()
	return nil
}

// Validate checks that every IRI the study contributes to a query is usable
func (s Study) Validate() error {
	if s.Name == "" {
		return errors.NewInvalidRequestError("study has no name")
	}
	for field, v := range map[string]string{
		"inclusion.dataset":  s.Inclusion.Dataset,
		"inclusion.property": s.Inclusion.Property,
		"subject_base":       s.SubjectBase,
		"metric_base":        s.MetricBase,
	} {
		if v == "" {
			return errors.NewInvalidRequestError("study %s: %s is required", s.Name, field)
		}
	}
	for _, name := range RequiredPrefixes {
		if s.Prefixes[name] == "" {
			return errors.NewInvalidRequestError("study %s: prefix %q is required", s.Name, name)
		}
	}
	if _, err := NewMetricSlotMap(s.DefaultWhitelist, s.MetricPrefix); err != nil {
		return errors.Wrapf(err, "study %s default_whitelist", s.Name)
	}
	return nil
}

type studyFile struct {
	Study []Study `toml:"study"`
}

// LoadStudyFile registers every [[study]] table in a TOML file and returns
// their names
func LoadStudyFile(path string) ([]string, error) {
	var f studyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrapf(err, "read study definitions %s", path)
	}

	names := make([]string, 0, len(f.Study))
	for _, s := range f.Study {
		if err := RegisterStudy(s); err != nil {
			return nil, errors.Wrapf(err, "study definitions %s", path)
		}
		names = append(names, s.Name)
	}
	return names, nil
}
