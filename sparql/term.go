package sparql

import (
	"strings"

	"github.com/teranos/qntx-cohort/errors"
)

// Term is one RDF term in a SPARQL JSON result row
type Term struct {
	Type     string `json:"type"` // uri, literal, typed-literal, bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Binding maps a projected variable name to its term.
// Unbound variables are absent from the map.
type Binding map[string]Term

// Value returns the string value bound to name
func (b Binding) Value(name string) (string, bool) {
	t, ok := b[name]
	if !ok {
		return "", false
	}
	return t.Value, true
}

// TrailingSegment returns the part of s after its final '/'.
// s is returned unchanged when it has no '/'.
func TrailingSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// IRI validates iri against the IRIREF production and returns it wrapped in
// angle brackets, ready to be placed in query text.
func IRI(iri string) (string, error) {
	if iri == "" {
		return "", errors.NewInvalidRequestError("empty IRI")
	}
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return "", errors.NewInvalidRequestError("IRI %q contains forbidden character %q", iri, r)
		}
	}
	return "<" + iri + ">", nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// Literal returns s as a double-quoted SPARQL string literal with
// ECHAR escapes applied
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
