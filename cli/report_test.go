package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/perfgo/testcheck/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_MalformedLineAfterDone(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "events.jsonl")
	summary := filepath.Join(dir, "summary.md")
	metricsPath := filepath.Join(dir, "testcheck.prom")

	require.NoError(t, os.WriteFile(input, []byte(strings.Join([]string{
		`{"count":1,"type":"allSuites","time":0}`,
		`{"suite":{"id":0,"platform":"vm","path":"/x/a_test.dart"},"type":"suite","time":0}`,
		`{"success":true,"type":"done","time":3}`,
		`{"type":"print",`,
	}, "\n")+"\n"), 0644))

	err := New().Run([]string{
		AppName, "report",
		"--format", "none",
		"--base-dir", dir,
		"--step-summary", summary,
		"--metrics-file", metricsPath,
		input,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, tree.ErrDecode)
	assert.Contains(t, err.Error(), "line 4")

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	md := string(data)
	assert.NotContains(t, md, "All tests succeeded")
	assert.Contains(t, md, "# Test Results\n\nfailed to decode event: line 4")
	assert.Contains(t, md, "## /x/a_test.dart\n")
	assert.Contains(t, md, "Ran 1/1 Suites\n")

	data, err = os.ReadFile(metricsPath)
	require.NoError(t, err)
	var conclusions []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "testcheck_run_conclusion{") {
			conclusions = append(conclusions, line)
		}
	}
	require.Len(t, conclusions, 3)
	for _, line := range conclusions {
		if strings.Contains(line, `conclusion="failure"`) {
			assert.True(t, strings.HasSuffix(line, " 1"), line)
		} else {
			assert.True(t, strings.HasSuffix(line, " 0"), line)
		}
	}
}

func TestReport_FromFile(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "summary.md")

	err := New().Run([]string{
		AppName, "report",
		"--format", "none",
		"--base-dir", "/work/app",
		"--step-summary", summary,
		"testdata/flutter.jsonl",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Test Results\n\nSome tests failed\n")
}
