package metrics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

func TestMetricSet_JSONKeepsOrder(t *testing.T) {
	set := Extract("24 units, asking $2,000,000")

	b, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Equal(t, `{"Asking Price":"$2,000,000.00","Units":"24","Estimated CapEx":"$192,000.00"}`, string(b))

	var back MetricSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, set.Entries(), back.Entries())
}

func TestMetricSet_EmptyJSON(t *testing.T) {
	b, err := json.Marshal(MetricSet{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	var back MetricSet
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.Empty())
}

func TestMetricSet_UnmarshalRejectsArrays(t *testing.T) {
	var s MetricSet
	assert.Error(t, json.Unmarshal([]byte(`["Units"]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Units":24}`), &s))
}

func TestMetricSet_UnmarshalKeepsDocumentOrder(t *testing.T) {
	var s MetricSet
	require.NoError(t, json.Unmarshal([]byte(`{"NOI":"$1.00","Asking Price":"$2.00","Units":"3"}`), &s))
	assert.Equal(t, []constants.Label{constants.NOI, constants.AskingPrice, constants.Units}, s.Labels())
}

func TestMetricSet_Only(t *testing.T) {
	set := Extract("$1,000,000, NOI: $80,000, 10 units")

	sub := set.Only(constants.EstimatedCapEx, constants.AskingPrice)
	assert.Equal(t, []constants.Label{constants.AskingPrice, constants.EstimatedCapEx}, sub.Labels())
	assert.Equal(t, set.Len(), set.Only().Len())
}

func TestMetricSet_EntriesIsACopy(t *testing.T) {
	set := Extract("24 units")
	e := set.Entries()
	e[0].Value = "tampered"

	v, _ := set.Get(constants.Units)
	assert.Equal(t, "24", v)
}
