package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verisite/internal/reveal"
)

func readScript(t *testing.T) string {
	t.Helper()
	src, err := embeddedStatic.ReadFile("static/app.js")
	require.NoError(t, err)
	return string(src)
}

func TestScriptRetriesSubscribeBounded(t *testing.T) {
	js := readScript(t)
	assert.Contains(t, js, "var subscribeTries = 3;")
	assert.Contains(t, js, "res.status >= 500 && attempt < subscribeTries")
	assert.Contains(t, js, "if (attempt < subscribeTries) return again();")
}

func TestScriptReadsRevealSettingsFromMarkup(t *testing.T) {
	js := readScript(t)
	assert.Contains(t, js, `parseFloat(el.getAttribute("data-reveal-threshold"))`)
	assert.NotContains(t, js, `"0.1"`, "threshold comes from the rendered attributes only")
	assert.Contains(t, js, "[data-reveal-static="+reveal.StaticNoObserver+"]")
	assert.Contains(t, js, `=== "`+reveal.StaticReducedMotion+`"`)
}
