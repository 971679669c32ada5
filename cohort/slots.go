package cohort

import (
	"github.com/teranos/qntx-cohort/errors"
)

// MetricSlotMap fixes the column order of every SubjectVector in a load.
// Keys are the metric codes as they appear in bindings (prefix + whitelist code).
type MetricSlotMap struct {
	codes []string
	index map[string]int
}

// NewMetricSlotMap maps prefix+whitelist[i] to slot i.
// Duplicate or empty codes are rejected.
func NewMetricSlotMap(whitelist []string, prefix string) (*MetricSlotMap, error) {
	m := &MetricSlotMap{
		codes: make([]string, 0, len(whitelist)),
		index: make(map[string]int, len(whitelist)),
	}
	for i, code := range whitelist {
		if code == "" {
			return nil, errors.NewInvalidRequestError("whitelist entry %d is empty", i)
		}
		key := prefix + code
		if first, dup := m.index[key]; dup {
			return nil, errors.NewInvalidRequestError("whitelist code %q repeated at positions %d and %d", code, first, i)
		}
		m.index[key] = i
		m.codes = append(m.codes, key)
	}
	return m, nil
}

// Width is the number of slots
func (m *MetricSlotMap) Width() int {
	return len(m.codes)
}

// Slot returns the slot index for a metric code
func (m *MetricSlotMap) Slot(code string) (int, bool) {
	i, ok := m.index[code]
	return i, ok
}

// Codes returns the metric codes in slot order
func (m *MetricSlotMap) Codes() []string {
	out := make([]string, len(m.codes))
	copy(out, m.codes)
	return out
}
