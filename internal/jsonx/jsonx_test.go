package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestExtractObject(t *testing.T) {
	obj, ok := ExtractObject(`Here is the plan: {"goal":"x"} hope that helps`)
	require.True(t, ok)
	assert.Equal(t, `{"goal":"x"}`, obj)

	_, ok = ExtractObject("no braces here")
	assert.False(t, ok)

	_, ok = ExtractObject("} backwards {")
	assert.False(t, ok)
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		Goal string `json:"goal"`
	}
	err := DecodeObject("```json\nSure: {\"goal\":\"post\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "post", out.Goal)

	err = DecodeObject("I could not produce a plan.", &out)
	assert.Error(t, err)

	err = DecodeObject(`{"goal": }`, &out)
	assert.Error(t, err)
}
