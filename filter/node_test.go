package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type RecordWhere struct {
	AND              []*RecordWhere  `json:"AND"`
	OR               []*RecordWhere  `json:"OR"`
	StringExample    *StringWhere    `json:"string_example"`
	BooleanExample   *BooleanWhere   `json:"boolean_example"`
	DateRangeExample *DateRangeWhere `json:"date_range_example"`
	CreatedAt        *DateTimeWhere  `json:"created_at"`
}

func TestDecode(t *testing.T) {
	node, err := Decode([]byte(`{
		"OR": [
			{"email": {"starts_with": "user1"}},
			{"age": {"in": ["12", 13]}}
		]
	}`))
	require.NoError(t, err)

	children, err := AsNodes(node[KeyOr])
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, Node{"email": map[string]any{"starts_with": "user1"}}, children[0])
	require.Equal(t, Node{"age": map[string]any{"in": []any{"12", json.Number("13")}}}, children[1])

	node, err = Decode(nil)
	require.NoError(t, err)
	require.Nil(t, node)

	_, err = Decode([]byte(`{"OR": [`))
	require.ErrorContains(t, err, "decode filter")
}

func TestFromStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"AND": []any{
			map[string]any{"email": map[string]any{"contains": "@x"}},
		},
	})
	require.NoError(t, err)

	node := FromStruct(s)
	children, err := AsNodes(node[KeyAnd])
	require.NoError(t, err)
	require.Equal(t, []Node{{"email": map[string]any{"contains": "@x"}}}, children)

	require.Nil(t, FromStruct(nil))
}

func TestAsNodes(t *testing.T) {
	nodes, err := AsNodes([]Node{{"a": map[string]any{"is": 1}}})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	nodes, err = AsNodes([]map[string]any{{"a": map[string]any{"is": 1}}})
	require.NoError(t, err)
	require.Equal(t, []Node{{"a": map[string]any{"is": 1}}}, nodes)

	nodes, err = AsNodes([]any{nil, map[string]any{}})
	require.NoError(t, err)
	require.Equal(t, []Node{{}}, nodes)

	_, err = AsNodes([]any{"x"})
	require.ErrorContains(t, err, "item at index 0 should be a filter node, got string")

	_, err = AsNodes("x")
	require.ErrorContains(t, err, "should be a list of filter nodes, got string")
}

func TestToMap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		node, err := ToMap(nil)
		require.NoError(t, err)
		require.Nil(t, node)
	})

	t.Run("node passes through", func(t *testing.T) {
		in := Node{"a": map[string]any{"is": 1}}
		node, err := ToMap(in)
		require.NoError(t, err)
		require.Equal(t, in, node)
	})

	t.Run("typed filter", func(t *testing.T) {
		node, err := ToMap(&RecordWhere{
			OR: []*RecordWhere{
				{StringExample: &StringWhere{StartsWith: lo.ToPtr("user1")}},
				{StringExample: &StringWhere{In: []string{"a", "b"}}},
			},
			BooleanExample: &BooleanWhere{Is: lo.ToPtr(false)},
			DateRangeExample: &DateRangeWhere{
				ContainsDateRange: &DateRange{
					StartDate: NewDate(2018, time.January, 1),
					EndDate:   NewDate(2018, time.January, 15),
				},
			},
			CreatedAt: &DateTimeWhere{
				Gte: lo.ToPtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
		})
		require.NoError(t, err)
		require.Equal(t, Node{
			"OR": []any{
				map[string]any{"string_example": map[string]any{"starts_with": "user1"}},
				map[string]any{"string_example": map[string]any{"in": []any{"a", "b"}}},
			},
			"boolean_example": map[string]any{"is": false},
			"date_range_example": map[string]any{
				"containsDateRange": map[string]any{"startDate": "2018-01-01", "endDate": "2018-01-15"},
			},
			"created_at": map[string]any{"gte": "2024-01-01T00:00:00Z"},
		}, node)
	})
}

func TestDecodeOperand(t *testing.T) {
	var r DateRange
	err := DecodeOperand(map[string]any{"startDate": "2018-01-01", "endDate": "2018-02-01"}, &r)
	require.NoError(t, err)
	require.Equal(t, "2018-01-01", r.StartDate.String())
	require.Equal(t, "2018-02-01", r.EndDate.String())

	err = DecodeOperand(map[string]any{"startDate": "01/01/2018"}, &r)
	require.ErrorContains(t, err, "invalid date")

	var raw struct {
		Start any `json:"start"`
	}
	err = DecodeOperand(map[string]any{"start": json.Number("9007199254740993")}, &raw)
	require.NoError(t, err)
	require.Equal(t, json.Number("9007199254740993"), raw.Start)

	var s StringRange
	err = DecodeOperand(map[string]any{"start": "a", "end": "m"}, &s)
	require.NoError(t, err)
	require.Equal(t, StringRange{Start: "a", End: "m"}, s)
}

func TestParseOperator(t *testing.T) {
	for _, op := range Operators {
		got, ok := ParseOperator(string(op))
		require.True(t, ok, op)
		require.Equal(t, op, got)
	}

	_, ok := ParseOperator("eq")
	require.False(t, ok)
	_, ok = ParseOperator("AND")
	require.False(t, ok)

	require.True(t, OpGte.LongRenderable())
	require.True(t, OpNotIn.LongRenderable())
	require.False(t, OpContains.LongRenderable())
	require.False(t, OpBetween.LongRenderable())
	require.True(t, OpIn.Multi())
	require.True(t, OpNotNull.Unary())
}

func TestPruneMap(t *testing.T) {
	m := map[string]any{
		"email": nil,
		"age":   map[string]any{"gte": nil},
		"name":  map[string]any{"is": "a", "not": nil},
		"OR": []any{
			map[string]any{"id": map[string]any{"is": 1}, "x": nil},
			"kept",
		},
		"AND": []any{},
	}
	PruneMap(m)
	require.Equal(t, map[string]any{
		"name": map[string]any{"is": "a"},
		"OR": []any{
			map[string]any{"id": map[string]any{"is": 1}},
			"kept",
		},
	}, m)
}

func TestDateColumn(t *testing.T) {
	v, err := NewDate(2018, time.January, 5).Value()
	require.NoError(t, err)
	require.Equal(t, time.Date(2018, time.January, 5, 0, 0, 0, 0, time.UTC), v)

	var d Date
	require.NoError(t, d.Scan(time.Date(2019, time.March, 2, 15, 4, 5, 0, time.UTC)))
	require.Equal(t, "2019-03-02", d.String())
	require.Equal(t, "date", Date{}.GormDataType())
}
