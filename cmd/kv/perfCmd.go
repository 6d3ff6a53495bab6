package kv

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dht/cmd/util"
	"github.com/ValentinKolb/dht/lib/store"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dht servers",
		Long:    "Runs a fixed number of operations per test with several concurrent workers and reports latency percentiles and throughput.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix      = "__test"
	perfLargeValueSize = 100 * 1024
	perfNumThreads     = 10
	perfKeySpread      = 100
	perfOps            = 10000
	perfSkip           = make([]string, 0)
)

// perfTest is a single benchmark: prepare runs once before the timed operations, op is timed
type perfTest struct {
	name    string
	prepare func(s store.IStore, keys []string) error
	op      func(s store.IStore, worker, i int, keys []string) error
}

// perfResult holds the measurements of one test
type perfResult struct {
	name     string
	skipped  bool
	timer    metrics.Timer
	errors   metrics.Counter
	duration time.Duration
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. insert,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers (all workers share the connections of the client)"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per test"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the insert-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSize = viper.GetInt("large-value-size") * 1024
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfOps = viper.GetInt("ops")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread < 1 || perfNumThreads < 1 || perfOps < 1 {
		return fmt.Errorf("keys, threads and ops must be positive")
	}

	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Performance testing tool for dht servers")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, util.GetClientConfig().String())
	fmt.Fprintf(out, "Threads: %d, Operations per test: %d, Keys: %d\n", perfNumThreads, perfOps, perfKeySpread)
	fmt.Fprintln(out)

	registry := metrics.NewRegistry()
	results := make([]perfResult, 0)

	fmt.Fprintf(out, "%-14s%10s%12s%12s%12s%12s%12s%14s%8s\n", "test", "ops", "mean", "p50", "p95", "p99", "max", "ops/sec", "errors")
	for _, test := range perfTests() {
		result := runPerfTest(rpcStore, registry, test)
		results = append(results, result)
		printResult(out, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func perfTests() []perfTest {
	fill := func(s store.IStore, keys []string) error {
		for _, k := range keys {
			if _, _, err := s.Insert(k, "test"); err != nil {
				return err
			}
		}
		return nil
	}

	largeValue := strings.Repeat("x", perfLargeValueSize)

	return []perfTest{
		{
			name: "insert",
			op: func(s store.IStore, _, i int, keys []string) error {
				_, _, err := s.Insert(keys[i%len(keys)], "test")
				return err
			},
		},
		{
			name: "insert-large",
			op: func(s store.IStore, _, i int, keys []string) error {
				_, _, err := s.Insert(keys[i%len(keys)], largeValue)
				return err
			},
		},
		{
			name:    "get",
			prepare: fill,
			op: func(s store.IStore, _, i int, keys []string) error {
				_, _, err := s.Get(keys[i%len(keys)])
				return err
			},
		},
		{
			name: "get-missing",
			op: func(s store.IStore, _, i int, _ []string) error {
				_, _, err := s.Get(fmt.Sprintf("%s/missing-%d", perfKeyPrefix, i%100))
				return err
			},
		},
		{
			name:    "remove",
			prepare: fill,
			op: func(s store.IStore, _, i int, keys []string) error {
				_, _, err := s.Remove(keys[i%len(keys)])
				return err
			},
		},
		{
			name:    "mixed",
			prepare: fill,
			op: func(s store.IStore, worker, i int, keys []string) error {
				key := keys[(worker+i)%len(keys)]
				var err error
				switch i % 3 {
				case 0:
					_, _, err = s.Insert(key, "test")
				case 1:
					_, _, err = s.Get(key)
				case 2:
					_, _, err = s.Remove(key)
				}
				return err
			},
		},
	}
}

// runPerfTest runs perfOps operations of test with perfNumThreads workers and removes the test keys afterwards
func runPerfTest(s store.IStore, registry metrics.Registry, test perfTest) perfResult {
	result := perfResult{
		name:   test.name,
		timer:  metrics.GetOrRegisterTimer(test.name+".latency", registry),
		errors: metrics.GetOrRegisterCounter(test.name+".errors", registry),
	}
	if shouldSkip(test.name) {
		result.skipped = true
		return result
	}

	keys := getKeys(test.name)
	defer func() {
		for _, k := range keys {
			_, _, _ = s.Remove(k)
		}
	}()

	if test.prepare != nil {
		if err := test.prepare(s, keys); err != nil {
			result.errors.Inc(1)
		}
	}

	var next int64 = -1
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= perfOps {
					return
				}
				opStart := time.Now()
				err := test.op(s, worker, i, keys)
				result.timer.UpdateSince(opStart)
				if err != nil {
					result.errors.Inc(1)
				}
			}
		}(w)
	}

	wg.Wait()
	result.duration = time.Since(start)
	return result
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// getKeys creates the test keys of one test
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// opsPerSec returns the throughput of a result
func (r perfResult) opsPerSec() float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.duration.Seconds()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, result perfResult) {
	if result.skipped {
		fmt.Fprintf(out, "%-14sskipped\n", result.name)
		return
	}

	t := result.timer.Snapshot()
	ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
	d := func(ns float64) string {
		return time.Duration(ns).Round(time.Microsecond).String()
	}

	fmt.Fprintf(out, "%-14s%10d%12s%12s%12s%12s%12s%14.0f%8d\n",
		result.name, t.Count(), d(t.Mean()), d(ps[0]), d(ps[1]), d(ps[2]), d(float64(t.Max())),
		result.opsPerSec(), result.errors.Count())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Ops", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "OpsPerSec", "Errors", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, result := range results {
		t := result.timer.Snapshot()
		ps := t.Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			result.name,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(t.Max(), 10),
			fmt.Sprintf("%.0f", result.opsPerSec()),
			strconv.FormatInt(result.errors.Count(), 10),
			strconv.FormatBool(result.skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSize / 1024),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", result.name, err)
		}
	}

	return nil
}
