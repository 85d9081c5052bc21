package database

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_NullStaysNull(t *testing.T) {
	v := NullValue()
	assert.True(t, v.IsNull())
	assert.Equal(t, "NULL", v.String())
	assert.Equal(t, "", v.Text())

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestValue_TimestampJSON(t *testing.T) {
	v := TimeValue(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), LayoutTimestamp)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T10:30:00"`, string(b))
}

func TestValue_FloatSpecials(t *testing.T) {
	b, err := json.Marshal(FloatValue(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, `"NaN"`, string(b))

	b, err = json.Marshal(FloatValue(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"+Inf"`, string(b))
}

type opaque struct{ Ch chan int }

func TestValue_OtherFallsBackToText(t *testing.T) {
	v := OtherValue(opaque{Ch: nil})
	b, err := json.Marshal(v)
	require.NoError(t, err)

	// encoding/json escapes the angle brackets; decode before comparing.
	var got string
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "{<nil>}", got)
}

func TestOtherValue_Nil(t *testing.T) {
	assert.True(t, OtherValue(nil).IsNull())
}

func TestRecord_MarshalJSONKeepsColumnOrder(t *testing.T) {
	r := Record{
		Columns: []string{"zeta", "alpha", "created"},
		Values: []Value{
			IntValue(1),
			NullValue(),
			TimeValue(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), LayoutTimestamp),
		},
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":null,"created":"2024-01-15T10:30:00"}`, string(b))
}

func TestRecord_MissingValuesAreNull(t *testing.T) {
	b, err := json.Marshal(Record{Columns: []string{"a", "b"}, Values: []Value{TextValue("x")}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":null}`, string(b))
}

func TestQueryResult_RowCount(t *testing.T) {
	proj := &QueryResult{Kind: ResultProjection, Columns: []string{"a"}, Rows: [][]Value{{IntValue(1)}, {IntValue(2)}}}
	assert.Equal(t, int64(2), proj.RowCount())
	assert.Len(t, proj.Records(), 2)

	mut := &QueryResult{Kind: ResultMutation, RowsAffected: 5}
	assert.Equal(t, int64(5), mut.RowCount())
	assert.False(t, mut.IsProjection())
}
