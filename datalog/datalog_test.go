package datalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCollector_HeaderOnceAndStableOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	collector, err := NewCollector(path)
	require.NoError(t, err)

	require.NoError(t, collector.WriteRow(map[string]string{
		"timestamp":            "2026-03-09T12:00:00Z",
		"loop count":           "0",
		"equilibration status": "equilibrated",
	}))
	require.NoError(t, collector.WriteRow(map[string]string{
		"equilibration status": "waiting for temperature",
		"loop count":           "1",
		"timestamp":            "2026-03-09T12:00:05Z",
	}))
	require.NoError(t, collector.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "equilibration status,loop count,timestamp", lines[0])
	assert.Equal(t, "equilibrated,0,2026-03-09T12:00:00Z", lines[1])
	assert.Equal(t, "waiting for temperature,1,2026-03-09T12:00:05Z", lines[2])
}

func TestCollector_MissingColumnsWrittenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	collector, err := NewCollector(path)
	require.NoError(t, err)
	defer collector.Close()

	require.NoError(t, collector.WriteRow(map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, collector.WriteRow(map[string]string{"b": "3"}))

	lines := readLines(t, path)
	assert.Equal(t, ",3", lines[2])
}

func TestCollector_UnknownColumnRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	collector, err := NewCollector(path)
	require.NoError(t, err)
	defer collector.Close()

	require.NoError(t, collector.WriteRow(map[string]string{"a": "1"}))

	err = collector.WriteRow(map[string]string{"a": "1", "surprise": "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"surprise"`)
}

func TestCollector_AppendToExistingFileSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	first, err := NewCollector(path)
	require.NoError(t, err)
	require.NoError(t, first.WriteRow(map[string]string{"a": "1"}))
	require.NoError(t, first.Close())

	second, err := NewCollector(path)
	require.NoError(t, err)
	require.NoError(t, second.WriteRow(map[string]string{"a": "2"}))
	require.NoError(t, second.Close())

	lines := readLines(t, path)
	assert.Equal(t, []string{"a", "1", "2"}, lines)
}
