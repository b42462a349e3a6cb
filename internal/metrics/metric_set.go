package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// Metric is one labelled, display-formatted value.
type Metric struct {
	Label constants.Label `json:"label"`
	Value string          `json:"value"`
}

// MetricSet is an ordered label -> value mapping. A label is present only when it was
// detected in the text or derived from detected figures; there are no empty values.
// The zero value is an empty set.
type MetricSet struct {
	entries []Metric
}

func (s MetricSet) Len() int { return len(s.entries) }

func (s MetricSet) Empty() bool { return len(s.entries) == 0 }

// Get returns the formatted value for l and whether it is present.
func (s MetricSet) Get(l constants.Label) (string, bool) {
	for _, m := range s.entries {
		if m.Label == l {
			return m.Value, true
		}
	}
	return "", false
}

func (s MetricSet) Has(l constants.Label) bool {
	_, ok := s.Get(l)
	return ok
}

// Entries returns a copy of the entries in insertion order.
func (s MetricSet) Entries() []Metric {
	out := make([]Metric, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s MetricSet) Labels() []constants.Label {
	out := make([]constants.Label, 0, len(s.entries))
	for _, m := range s.entries {
		out = append(out, m.Label)
	}
	return out
}

// Only returns the subset of s whose labels are in keep, preserving order.
func (s MetricSet) Only(keep ...constants.Label) MetricSet {
	if len(keep) == 0 {
		return s
	}
	want := make(map[constants.Label]struct{}, len(keep))
	for _, l := range keep {
		want[l] = struct{}{}
	}
	var out MetricSet
	for _, m := range s.entries {
		if _, ok := want[m.Label]; ok {
			out.entries = append(out.entries, m)
		}
	}
	return out
}

// set keeps the first value written for a label.
func (s *MetricSet) set(l constants.Label, v string) {
	if s.Has(l) {
		return
	}
	s.entries = append(s.entries, Metric{Label: l, Value: v})
}

// MarshalJSON writes an object whose keys keep the set's order.
func (s MetricSet) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, string]()
	for _, m := range s.entries {
		om.Set(string(m.Label), m.Value)
	}
	return json.Marshal(om)
}

// UnmarshalJSON reads the object form written by MarshalJSON, keeping key order.
func (s *MetricSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		s.entries = nil
		return nil
	}
	om := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, om); err != nil {
		return fmt.Errorf("metric set: %w", err)
	}
	var out MetricSet
	for p := om.Oldest(); p != nil; p = p.Next() {
		out.set(constants.Label(p.Key), p.Value)
	}
	*s = out
	return nil
}
