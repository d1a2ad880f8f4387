package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	tbl := NewTable("CHANNEL", "CONTAINER").
		Row("latest", "controller-056").
		Row("lts", "controller-050")

	assert.Equal(t, 2, tbl.Len())
	out := tbl.String()
	assert.Contains(t, out, "CHANNEL")
	assert.Contains(t, out, "controller-050")
}
