package cohort

import "context"

// SeriesSource is the read side of a Catalog handed to downstream consumers
type SeriesSource interface {
	Keys() ([]string, error)
	Retrieve(subjectID string) (SubjectTimeSeries, error)
}

var _ SeriesSource = (*Catalog)(nil)

// Interpolator produces a denser, uniformly spaced series from a subject's
// raw series (e.g. weekly readings to daily). Output vectors keep the input
// width. The catalog never calls it; no implementation ships here.
type Interpolator interface {
	Interpolate(ts SubjectTimeSeries) (SubjectTimeSeries, error)
}

// Model is a statistical model that initializes its own parameters from a
// loaded catalog. Inputs are not shaped beyond what Retrieve returns.
type Model interface {
	Init(ctx context.Context, source SeriesSource) error
}
