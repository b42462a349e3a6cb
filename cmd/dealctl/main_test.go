package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ARTIFACT_CACHE_DIR", t.TempDir())

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMetricsFromStdin(t *testing.T) {
	out, err := run(t, "Asking price: $2,000,000 for 20 units. Cap Rate: 5.5%", "metrics", "-")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Asking Price: $2,000,000.00",
		"Units: 20",
		"Cap Rate: 5.50%",
		"Estimated NOI: $110,000.00",
		"Estimated CapEx: $160,000.00",
	}, "\n")+"\n", out)
}

func TestMetricsJSONAndEmpty(t *testing.T) {
	out, err := run(t, "NOI: $50,000", "metrics", "--json", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Asking Price":"$50,000.00","NOI":"$50,000.00","Estimated Cap Rate":"100.00%","Estimated OpEx":"$26,923.08"}`, out)
	assert.Less(t, strings.Index(out, `"Asking Price"`), strings.Index(out, `"Estimated OpEx"`))

	out, err = run(t, "nothing to see here", "metrics", "-")
	require.NoError(t, err)
	assert.Equal(t, "No metrics detected.\n", out)
}

func TestMetricsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listing.txt")
	require.NoError(t, os.WriteFile(path, []byte("8 units\nAsking $640,000"), 0o644))

	out, err := run(t, "", "metrics", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Units: 8\n")
	assert.Contains(t, out, "Estimated CapEx: $64,000.00\n")

	_, err = run(t, "", "metrics", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestTextCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rent roll attached.\r\n\r\n\r\nNOI: $12,000"), 0o644))

	out, err := run(t, "", "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rent roll attached.")
	assert.Contains(t, out, "NOI: $12,000")
	assert.NotContains(t, out, "\r")
}

func TestAnalyzeInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "om.txt")
	require.NoError(t, os.WriteFile(path, []byte("Asking price $1,000,000. NOI: $70,000"), 0o644))

	out, err := run(t, "", "--inmem", "analyze", path, "--goal", "should I buy it?")
	require.NoError(t, err)
	assert.Contains(t, out, "(METRICS_OK)")
	assert.Contains(t, out, "Elapsed: ")
	assert.Contains(t, out, "Goal: should I buy it?")
	assert.Contains(t, out, "Estimated Cap Rate: 7.00%")

	_, err = run(t, "", "--inmem", "analyze", filepath.Join(t.TempDir(), "deck.pptx"))
	require.Error(t, err)
}

func TestDBHealthInMemory(t *testing.T) {
	out, err := run(t, "", "--inmem", "dbhealth")
	require.NoError(t, err)
	assert.Contains(t, out, "DB health: OK (sqlite)")
	assert.Contains(t, out, "recent analyses: 0")
}

func TestWatchOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("NOI: $40,000"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("12 units"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte("x"), 0o644))

	out, err := run(t, "", "--inmem", "watch", dir, "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded=2")
	assert.Contains(t, out, "failed=0")
}
