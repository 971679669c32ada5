package cohort

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/sparql"
)

// Endpoint runs a SELECT query and returns its bindings.
// *sparql.Client satisfies it.
type Endpoint interface {
	Query(ctx context.Context, query string) ([]sparql.Binding, error)
}

// Resolver computes cohort membership
type Resolver struct {
	endpoint Endpoint
	builder  *QueryBuilder
	logger   *zap.SugaredLogger
}

// NewResolver creates a resolver; logger may be nil
func NewResolver(endpoint Endpoint, builder *QueryBuilder, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{endpoint: endpoint, builder: builder, logger: logger}
}

// Resolve returns the ids of every subject satisfying p.
// Query failures and rows without a usable ?patient are endpoint errors.
func (r *Resolver) Resolve(ctx context.Context, p InclusionPredicate) (Cohort, error) {
	query, err := r.builder.MembershipQuery(p)
	if err != nil {
		return Cohort{}, err
	}

	bindings, err := r.endpoint.Query(ctx, query)
	if err != nil {
		return Cohort{}, errors.MarkEndpoint(err, "membership query")
	}

	ids := make([]string, 0, len(bindings))
	for i, b := range bindings {
		v, ok := b.Value(VarPatient)
		if !ok {
			return Cohort{}, errors.Mark(
				errors.Newf("membership binding %d has no ?%s", i, VarPatient), errors.ErrEndpoint)
		}
		id := sparql.TrailingSegment(v)
		if id == "" {
			return Cohort{}, errors.Mark(
				errors.Newf("membership binding %d: no subject id in %q", i, v), errors.ErrEndpoint)
		}
		ids = append(ids, id)
	}

	c := NewCohort(ids...)
	r.logger.Infow("Resolved cohort",
		"bindings", len(bindings),
		"subjects", c.Len(),
	)
	return c, nil
}
