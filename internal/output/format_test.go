package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"TABLE", FormatTable, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	v := map[string]any{"latest": map[string]any{"container": "controller-056", "legacy": false}}

	var js bytes.Buffer
	require.NoError(t, Encode(&js, FormatJSON, v))
	assert.JSONEq(t, `{"latest":{"container":"controller-056","legacy":false}}`, js.String())

	var y bytes.Buffer
	require.NoError(t, Encode(&y, FormatYAML, v))
	assert.Equal(t, "latest:\n  container: controller-056\n  legacy: false\n", y.String())

	assert.Error(t, Encode(&bytes.Buffer{}, FormatTable, v))
}
