package sparql

import (
	"encoding/json"
	"io"

	"github.com/teranos/qntx-cohort/errors"
)

// ResultsMediaType is the media type requested from the endpoint
const ResultsMediaType = "application/sparql-results+json"

// Results is the SPARQL 1.1 JSON results document for a SELECT query
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// DecodeResults reads a SELECT result document.
// A document without a results section (e.g. an ASK answer) is rejected.
func DecodeResults(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "decode SPARQL results")
	}
	if res.Results == nil {
		return nil, errors.New("SPARQL response has no results section")
	}
	return &res, nil
}

// Bindings returns the result rows
func (r *Results) Bindings() []Binding {
	if r == nil || r.Results == nil {
		return nil
	}
	return r.Results.Bindings
}
