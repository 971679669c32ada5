package cohort

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/logger"
)

// LoadMeta describes how the installed Dataset was produced
type LoadMeta struct {
	Study     string    `json:"study"`
	Whitelist []string  `json:"whitelist"`
	LoadedAt  time.Time `json:"loaded_at"`
	Records   int       `json:"records"` // bindings reshaped; 0 for restored snapshots
}

// Snapshot is a Dataset together with its LoadMeta
type Snapshot struct {
	ID      string   `json:"id,omitempty"` // set once persisted
	Meta    LoadMeta `json:"meta"`
	Dataset Dataset  `json:"dataset"`
}

type installed struct {
	dataset Dataset
	meta    LoadMeta
	keys    []string
}

// Catalog owns the currently installed Dataset.
//
// Loads are serialized. A Dataset is built completely before it is swapped
// in, so readers observe either the previous or the new one. A failed load
// leaves the previous Dataset in place.
type Catalog struct {
	endpoint Endpoint
	logger   *zap.SugaredLogger
	now      func() time.Time

	loadMu sync.Mutex // one load at a time

	mu      sync.RWMutex
	current *installed
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the catalog logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now for LoadMeta.LoadedAt
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// NewCatalog creates an empty catalog reading from endpoint.
// The endpoint is expected to have been probed already.
func NewCatalog(endpoint Endpoint, opts ...Option) *Catalog {
	c := &Catalog{
		endpoint: endpoint,
		logger:   zap.NewNop().Sugar(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load runs resolve -> build -> query -> reshape for the named study and
// installs the result. A nil whitelist means the study's default; an empty
// non-nil whitelist is honoured and yields vectors of width zero.
// Returns a copy of exactly what was installed, so callers never observe a
// concurrent Install in between.
func (c *Catalog) Load(ctx context.Context, studyName string, whitelist []string) (*Snapshot, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	study, err := LookupStudy(studyName)
	if err != nil {
		return nil, err
	}
	if whitelist == nil {
		whitelist = study.DefaultWhitelist
	}
	whitelist = cloneStrings(whitelist)

	ctx = logger.WithLoadID(ctx, uuid.NewString())
	log := logger.FromContext(ctx, c.logger).With(logger.FieldStudy, study.Name)
	start := c.now()

	builder := NewQueryBuilder(study)
	members, err := NewResolver(c.endpoint, builder, log).Resolve(ctx, study.Inclusion)
	if err != nil {
		log.Errorw("Cohort resolution failed", logger.FieldError, err)
		return nil, errors.Wrap(err, "resolve cohort")
	}

	query, err := builder.Build(members, whitelist)
	if err != nil {
		return nil, errors.Wrap(err, "build record query")
	}

	log.Infow("Retrieving records",
		logger.FieldSubjects, members.Len(),
		logger.FieldWidth, len(whitelist),
	)
	bindings, err := c.endpoint.Query(ctx, query)
	if err != nil {
		log.Errorw("Record query failed", logger.FieldError, err)
		return nil, errors.MarkEndpoint(err, "record query")
	}

	dataset, err := Reshaper{MetricPrefix: study.MetricPrefix}.Reshape(bindings, whitelist)
	if err != nil {
		log.Errorw("Reshape failed", logger.FieldError, err)
		return nil, errors.Wrap(err, "reshape records")
	}

	cur := c.install(dataset, LoadMeta{
		Study:     study.Name,
		Whitelist: whitelist,
		LoadedAt:  c.now(),
		Records:   len(bindings),
	})

	log.Infow("Dataset installed",
		logger.FieldBindings, len(bindings),
		logger.FieldSubjects, len(cur.keys),
		logger.FieldDurationMS, c.now().Sub(start).Milliseconds(),
	)
	return cur.copy(), nil
}

// Install replaces the current Dataset with a prebuilt one, typically a
// restored snapshot. Every vector must have len(meta.Whitelist) slots.
// The catalog keeps its own copy of dataset.
func (c *Catalog) Install(dataset Dataset, meta LoadMeta) error {
	width := len(meta.Whitelist)
	for subject, ts := range dataset {
		for i, v := range ts {
			if len(v) != width {
				return errors.NewInvalidRequestError(
					"subject %s vector %d has %d slots, whitelist has %d", subject, i, len(v), width)
			}
		}
	}
	if _, err := NewMetricSlotMap(meta.Whitelist, ""); err != nil {
		return err
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	meta.Whitelist = cloneStrings(meta.Whitelist)
	cur := c.install(dataset.Clone(), meta)
	c.logger.Infow("Dataset installed from snapshot",
		logger.FieldStudy, meta.Study,
		logger.FieldSubjects, len(cur.keys),
	)
	return nil
}

// install swaps in next; the returned value is immutable once published
func (c *Catalog) install(dataset Dataset, meta LoadMeta) *installed {
	next := &installed{dataset: dataset, meta: meta, keys: dataset.SubjectIDs()}
	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	return next
}

func (cur *installed) metaCopy() LoadMeta {
	meta := cur.meta
	meta.Whitelist = cloneStrings(meta.Whitelist)
	return meta
}

func (cur *installed) copy() *Snapshot {
	return &Snapshot{Meta: cur.metaCopy(), Dataset: cur.dataset.Clone()}
}

func (c *Catalog) snapshot() (*installed, error) {
	c.mu.RLock()
	cur := c.current
	c.mu.RUnlock()
	if cur == nil {
		return nil, errors.WithStack(errors.ErrNotLoaded)
	}
	return cur, nil
}

// Loaded reports whether a Dataset is installed
func (c *Catalog) Loaded() bool {
	_, err := c.snapshot()
	return err == nil
}

// Keys returns the loaded subject ids in ascending order
func (c *Catalog) Keys() ([]string, error) {
	cur, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return cloneStrings(cur.keys), nil
}

// Retrieve returns a copy of one subject's time series
func (c *Catalog) Retrieve(subjectID string) (SubjectTimeSeries, error) {
	ts, _, err := c.RetrieveWithMeta(subjectID)
	return ts, err
}

// RetrieveWithMeta returns one subject's time series and the LoadMeta of
// the Dataset it came from. Both are read from the same installed Dataset,
// so len(meta.Whitelist) always matches the vector width.
func (c *Catalog) RetrieveWithMeta(subjectID string) (SubjectTimeSeries, LoadMeta, error) {
	cur, err := c.snapshot()
	if err != nil {
		return nil, LoadMeta{}, err
	}
	ts, ok := cur.dataset[subjectID]
	if !ok {
		return nil, LoadMeta{}, errors.NewNotFoundError("subject %q", subjectID)
	}
	return ts.Clone(), cur.metaCopy(), nil
}

// Meta returns the LoadMeta of the installed Dataset
func (c *Catalog) Meta() (LoadMeta, error) {
	cur, err := c.snapshot()
	if err != nil {
		return LoadMeta{}, err
	}
	return cur.metaCopy(), nil
}

// Summary returns the LoadMeta and subject count of one installed Dataset
func (c *Catalog) Summary() (LoadMeta, int, error) {
	cur, err := c.snapshot()
	if err != nil {
		return LoadMeta{}, 0, err
	}
	return cur.metaCopy(), len(cur.keys), nil
}

// Snapshot returns a deep copy of the installed Dataset and its LoadMeta
func (c *Catalog) Snapshot() (*Snapshot, error) {
	cur, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return cur.copy(), nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
