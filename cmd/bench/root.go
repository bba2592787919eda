package bench

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/kLock/cmd/util"
	"github.com/ValentinKolb/kLock/lib/keylock"
	"github.com/ValentinKolb/kLock/lib/registry"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// BenchCommands represents the bench command group
	BenchCommands = &cobra.Command{
		Use:     "bench",
		Short:   "Contention benchmark for the keylock manager",
		Long:    "Runs a configurable number of workers that contend for a configurable number of keys and reports acquisition latencies and throughput.",
		RunE:    run,
		PreRunE: processBenchConfig,
	}

	benchWorkers  = 10
	benchKeys     = 8
	benchHold     = time.Millisecond
	benchDuration = 5 * time.Second
	benchTimeout  = time.Second
	benchFactory  registry.RegistryFactory
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "workers"
	BenchCommands.Flags().Int(key, 10, util.WrapString("Number of workers contending for locks"))
	key = "keys"
	BenchCommands.Flags().Int(key, 8, util.WrapString("How many different keys the workers contend for"))
	key = "hold"
	BenchCommands.Flags().Duration(key, time.Millisecond, util.WrapString("How long each worker holds an acquired lock"))
	key = "duration"
	BenchCommands.Flags().Duration(key, 5*time.Second, util.WrapString("How long to run the benchmark"))
	key = "lock-timeout"
	BenchCommands.Flags().Duration(key, time.Second, util.WrapString("Per-acquisition timeout"))
	key = "engine"
	BenchCommands.Flags().String(key, "xsync", util.WrapString("Registry engine to benchmark (xsync, mutexmap)"))
	key = "csv"
	BenchCommands.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	benchWorkers = viper.GetInt("workers")
	benchKeys = viper.GetInt("keys")
	benchHold = viper.GetDuration("hold")
	benchDuration = viper.GetDuration("duration")
	benchTimeout = viper.GetDuration("lock-timeout")

	factory, err := util.GetRegistryFactory()
	if err != nil {
		return err
	}
	benchFactory = factory

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Contention benchmark for the keylock manager")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Engine:   %s\n", viper.GetString("engine"))
	fmt.Printf("Workers:  %d\n", benchWorkers)
	fmt.Printf("Keys:     %d\n", benchKeys)
	fmt.Printf("Hold:     %v\n", benchHold)
	fmt.Printf("Duration: %v\n", benchDuration)
	fmt.Printf("Timeout:  %v\n", benchTimeout)
	fmt.Println()

	mgr := keylock.NewWithConfig(keylock.Config{
		Registry: benchFactory(),
		Timeout:  benchTimeout,
	})

	// latency of successful acquisitions (exp-decay sample keeps the
	// histogram bounded however long the run is)
	latencies := metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))

	var (
		acquired atomic.Int64
		failed   atomic.Int64
	)

	getKey := makeKeys(benchKeys)
	deadline := time.Now().Add(benchDuration)

	fmt.Println("starting benchmark...")

	var wg sync.WaitGroup
	wg.Add(benchWorkers)
	start := time.Now()

	for w := 0; w < benchWorkers; w++ {
		go func(id int) {
			defer wg.Done()

			counter := id
			for time.Now().Before(deadline) {
				key := getKey(counter)
				counter += benchWorkers

				acquireStart := time.Now()
				guard, ok := mgr.Lock(key)
				if !ok {
					failed.Add(1)
					continue
				}
				latencies.Update(int64(time.Since(acquireStart)))
				acquired.Add(1)

				if benchHold > 0 {
					time.Sleep(benchHold)
				}
				guard.Release()
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Print results
	snapshot := latencies.Snapshot()
	percentiles := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})

	fmt.Println()
	fmt.Println("Results:")
	fmt.Printf("Acquired:   %d\n", acquired.Load())
	fmt.Printf("Timeouts:   %d\n", failed.Load())
	fmt.Printf("Throughput: %.0f locks/s\n", float64(acquired.Load())/elapsed.Seconds())
	fmt.Printf("Latency:    mean=%v p50=%v p95=%v p99=%v max=%v\n",
		time.Duration(int64(snapshot.Mean())),
		time.Duration(int64(percentiles[0])),
		time.Duration(int64(percentiles[1])),
		time.Duration(int64(percentiles[2])),
		time.Duration(snapshot.Max()),
	)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, snapshot, acquired.Load(), failed.Load(), elapsed); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// makeKeys creates the benchmark key space and returns an accessor with wraparound
func makeKeys(spread int) func(int) string {
	keys := make([]string, spread)
	for i := 0; i < spread; i++ {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
	}

	return func(i int) string {
		return keys[i%spread]
	}
}

// writeResultsToCSV exports the benchmark results to a CSV file
func writeResultsToCSV(path string, snapshot metrics.Histogram, acquired, failed int64, elapsed time.Duration) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"engine", "workers", "keys", "hold", "duration", "acquired", "timeouts", "locks_per_sec", "latency_mean_ns", "latency_p50_ns", "latency_p95_ns", "latency_p99_ns", "latency_max_ns"}
	if err := writer.Write(header); err != nil {
		return err
	}

	percentiles := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})
	row := []string{
		viper.GetString("engine"),
		fmt.Sprintf("%d", benchWorkers),
		fmt.Sprintf("%d", benchKeys),
		benchHold.String(),
		elapsed.String(),
		fmt.Sprintf("%d", acquired),
		fmt.Sprintf("%d", failed),
		fmt.Sprintf("%.0f", float64(acquired)/elapsed.Seconds()),
		fmt.Sprintf("%.0f", snapshot.Mean()),
		fmt.Sprintf("%.0f", percentiles[0]),
		fmt.Sprintf("%.0f", percentiles[1]),
		fmt.Sprintf("%.0f", percentiles[2]),
		fmt.Sprintf("%d", snapshot.Max()),
	}

	return writer.Write(row)
}
