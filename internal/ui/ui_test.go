package ui

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDays(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	assert.Equal(t, "0 days", Days(0))
	assert.Equal(t, "1 day", Days(1))
	assert.Equal(t, "12 days", Days(12))
}

func TestTable(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var buf bytes.Buffer

	err := Table(&buf, [][]string{
		{"MEDIA", "WATCHED"},
		{"movie-1", "25s"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "MEDIA")
	assert.Contains(t, out, "movie-1")
	assert.Contains(t, out, "25s")
}
