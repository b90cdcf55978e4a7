package roster

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
)

func TestParseEvaluatorID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want EvaluatorID
	}{
		{name: "int", in: 101, want: 101},
		{name: "int64", in: int64(7), want: 7},
		{name: "float", in: float64(202), want: 202},
		{name: "json number", in: json.Number("303"), want: 303},
		{name: "string", in: " 404 ", want: 404},
		{name: "string with fraction", in: "101.0", want: 101},
		{name: "raw", in: json.RawMessage(`"55"`), want: 55},
		{name: "object id", in: map[string]any{"id": float64(9)}, want: 9},
		{name: "object user_id", in: map[string]any{"user_id": "10"}, want: 10},
		{name: "nested user", in: map[string]any{"user": map[string]any{"userId": json.Number("11")}}, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvaluatorID(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseEvaluatorIDRejects(t *testing.T) {
	bad := []any{nil, "", "abc", 0, -5, 1.5, "2.5", true, map[string]any{"name": "x"}, json.RawMessage(`{`),
		float64(1 << 63), "9223372036854775808", json.Number("9.223372036854775808e18")}
	for _, in := range bad {
		_, err := ParseEvaluatorID(in)
		require.ErrorIs(t, err, domain.ErrInvalidEvaluatorID, "input %#v", in)
	}
}

func TestParseEvaluatorIDs(t *testing.T) {
	got, err := ParseEvaluatorIDs([]any{3, "1", float64(3), json.Number("2"), "1"})
	require.NoError(t, err)
	if diff := cmp.Diff([]EvaluatorID{3, 1, 2}, got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseEvaluatorIDs([]any{1, "x"})
	require.ErrorIs(t, err, domain.ErrInvalidEvaluatorID)
}

func TestParseProjectID(t *testing.T) {
	pid, err := ParseProjectID("42")
	require.NoError(t, err)
	require.Equal(t, ProjectID(42), pid)
	require.Equal(t, "42", pid.String())

	_, err = ParseProjectID("0")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ParseProjectID("p-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluatorIDUnmarshalJSON(t *testing.T) {
	var body struct {
		IDs []EvaluatorID `json:"ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"ids":[1,"2",3.0]}`), &body))
	require.Equal(t, []EvaluatorID{1, 2, 3}, body.IDs)

	err := json.Unmarshal([]byte(`{"ids":["nope"]}`), &body)
	require.ErrorIs(t, err, domain.ErrInvalidEvaluatorID)
}

func TestSetOperations(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(3, 4)

	require.Equal(t, []EvaluatorID{1, 2}, a.Minus(b).Sorted())
	require.Equal(t, []EvaluatorID{1, 2, 3, 4}, a.Union(b).Sorted())
	require.True(t, a.Equal(NewSet(3, 2, 1)))
	require.False(t, a.Equal(b))

	c := a.Clone()
	c.Remove(1)
	require.True(t, a.Has(1))
	require.Equal(t, 2, c.Len())
}
