package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/envprobe/envprobe/internal/cache"
	"github.com/envprobe/envprobe/internal/config"
	"github.com/envprobe/envprobe/internal/logging"
	"github.com/envprobe/envprobe/internal/manifest"
	"github.com/envprobe/envprobe/internal/probes"
	"github.com/envprobe/envprobe/internal/scheduler"
)

var (
	flagConfig   string
	flagManifest string
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:   "envprobe",
		Short: "Probe the host for installed developer tools",
		Long: "envprobe runs batches of detection tasks against the host machine,\n" +
			"respecting declared dependencies between probes, bounding concurrency,\n" +
			"and caching results.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "engine config file (YAML/TOML/JSON)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	scan := &cobra.Command{
		Use:   "scan",
		Short: "Run the probes defined in a manifest",
		RunE:  runScan,
	}
	scan.Flags().StringVarP(&flagManifest, "manifest", "m", "probes.yaml", "probe manifest file")
	root.AddCommand(scan)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	minLevel := logging.LevelInfo
	if flagVerbose {
		minLevel = logging.LevelDebug
	}
	logger := logging.NewConsoleLogger(os.Stderr, minLevel)

	pm := probes.NewProcessManager()
	go func() {
		<-ctx.Done()
		pm.KillAll()
	}()

	tasks, err := manifest.Load(flagManifest, pm)
	if err != nil {
		return err
	}

	notifications := make(chan scheduler.Notification, 64)
	sched := scheduler.New(cfg,
		scheduler.WithLogger(logger),
		scheduler.WithCache(cache.New()),
		scheduler.WithNotifications(notifications),
	)

	results, runErr := sched.Run(ctx, tasks)
	close(notifications)

	var summary scheduler.ExecutionSummary
	for n := range notifications {
		if done, ok := n.(scheduler.ExecutionComplete); ok {
			summary = done.Summary
		}
	}

	printResults(results)
	printSummary(summary)

	if runErr != nil {
		return runErr
	}
	if summary.FailureCount > 0 {
		return fmt.Errorf("%d probe(s) failed", summary.FailureCount)
	}
	return nil
}

func printResults(results []scheduler.TaskResult) {
	sorted := make([]scheduler.TaskResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TaskID < sorted[j].TaskID })

	for _, r := range sorted {
		switch {
		case r.Err != nil:
			fmt.Printf("  ✗ %-24s %s\n", r.TaskID, r.Err.Message)
			if r.Err.SuggestedAction != "" {
				fmt.Printf("      ↳ %s\n", r.Err.SuggestedAction)
			}
		case r.Cached:
			fmt.Printf("  ✓ %-24s (cached)\n", r.TaskID)
		default:
			fmt.Printf("  ✓ %-24s %s\n", r.TaskID, r.ExecutionTime.Round(time.Millisecond))
		}
	}
}

func printSummary(s scheduler.ExecutionSummary) {
	fmt.Printf("\n%d probes: %d ok, %d failed, %d cached, %d skipped (total %s, avg %s, max %s)\n",
		s.TasksExecuted, s.SuccessCount, s.FailureCount, s.CacheHits, s.SkippedCount,
		s.TotalTime.Round(time.Millisecond),
		s.AvgExecutionTime.Round(time.Millisecond),
		s.MaxExecutionTime.Round(time.Millisecond))
}
