package kv

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dht/lib/store/lstore"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPerfConfig(t *testing.T, ops, threads, keys int, skip ...string) {
	t.Helper()
	oldOps, oldThreads, oldKeys, oldSkip, oldLarge := perfOps, perfNumThreads, perfKeySpread, perfSkip, perfLargeValueSize
	perfOps, perfNumThreads, perfKeySpread, perfSkip, perfLargeValueSize = ops, threads, keys, skip, 1024
	t.Cleanup(func() {
		perfOps, perfNumThreads, perfKeySpread, perfSkip, perfLargeValueSize = oldOps, oldThreads, oldKeys, oldSkip, oldLarge
	})
}

func TestRunPerfTests(t *testing.T) {
	withPerfConfig(t, 500, 4, 10, "get-missing")
	s := lstore.NewLocalStore()
	registry := metrics.NewRegistry()

	var out bytes.Buffer
	results := make([]perfResult, 0)
	for _, test := range perfTests() {
		result := runPerfTest(s, registry, test)
		results = append(results, result)
		printResult(&out, result)

		if test.name == "get-missing" {
			assert.True(t, result.skipped)
			continue
		}
		assert.Equal(t, int64(500), result.timer.Count(), test.name)
		assert.Equal(t, int64(0), result.errors.Count(), test.name)
		assert.Greater(t, result.opsPerSec(), 0.0, test.name)
	}

	// test keys are removed after every test
	assert.Equal(t, 0, s.Len())
	assert.Contains(t, out.String(), "get-missing   skipped")

	csvPath := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, writeResultsToCSV(csvPath, results))

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, len(results)+1)
	assert.Equal(t, "Test", rows[0][0])
}

func TestShouldSkip(t *testing.T) {
	withPerfConfig(t, 1, 1, 1, "insert", " get")
	assert.True(t, shouldSkip("insert"))
	assert.True(t, shouldSkip("get"))
	assert.False(t, shouldSkip("mixed"))
}
