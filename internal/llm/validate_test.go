package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "test-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string", "enum": []string{"A", "B"}},
			"count":  map[string]any{"type": "integer"},
		},
		"required": []string{"answer"},
	},
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanJSON(tc.in))
		})
	}
}

func TestCheckSchema(t *testing.T) {
	got, err := checkSchema(testSchema, "```json\n{\"answer\":\"A\",\"count\":2}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"A","count":2}`, got)

	_, err = checkSchema(testSchema, `{"answer":"Z"}`)
	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid))

	_, err = checkSchema(testSchema, `{"count":2}`)
	require.ErrorAs(t, err, &invalid)

	_, err = checkSchema(testSchema, `not json`)
	require.ErrorAs(t, err, &invalid)
}

func TestCheckSchemaLeavesTextAlone(t *testing.T) {
	got, err := checkSchema(nil, "  ```go\nfmt.Println()\n```  ")
	require.NoError(t, err)
	assert.Equal(t, "```go\nfmt.Println()\n```", got)
}

func TestResponseDecode(t *testing.T) {
	var v struct{ Answer string }
	require.NoError(t, (&Response{Content: `{"answer":"B"}`}).Decode(&v))
	assert.Equal(t, "B", v.Answer)

	err := (&Response{Content: `{`}).Decode(&v)
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}
