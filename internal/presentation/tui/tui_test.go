package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "symbolic stack executor v1.2.3")
}

func TestOutcome(t *testing.T) {
	var buf bytes.Buffer
	// a bytes.Buffer is not a terminal, so no escape codes are emitted
	assert.Equal(t, "OK", Outcome(&buf, false))
	assert.Equal(t, "FAILED", Outcome(&buf, true))
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)

	out, err := render("# Report\n\n- one path")
	require.NoError(t, err)
	assert.Contains(t, out, "Report")
	assert.Contains(t, out, "one path")
}
