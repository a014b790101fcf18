package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/cidr"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/metrics"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/output"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/pipeline"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/watch"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] [input]",
	Short: "Remove CIDR blocks covered by broader blocks",
	Long: `Read a list of IPv4 addresses and CIDR blocks, one per line, drop
duplicates and every block contained in a broader one, and write the
survivors in address order.

Malformed lines are reported and skipped. The input defaults to
all_ip.origin.txt and the output to all_ip.txt.

Examples:
  pcdnban merge
  pcdnban merge -o blocklist.txt cidrs.txt
  pcdnban merge --strategy trie --metrics-file /var/lib/node_exporter/pcdnban.prom
  pcdnban merge --watch all_ip.origin.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "all_ip.txt", "file to write the merged list to")
	mergeCmd.Flags().String("strategy", "scan", "elimination strategy (scan, trie)")
	mergeCmd.Flags().Int("preview", 10, "number of kept records to print")
	mergeCmd.Flags().Int("preview-removed", 20, "number of removed blocks to print")
	mergeCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
	mergeCmd.Flags().BoolP("watch", "w", false, "re-run whenever the input file changes")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	mc := s.cfg.Merge
	if len(args) > 0 {
		mc.Input = args[0]
	}
	overrideString(cmd, "output", &mc.Output)
	overrideString(cmd, "strategy", &mc.Strategy)
	overrideInt(cmd, "preview", &mc.PreviewKept)
	overrideInt(cmd, "preview-removed", &mc.PreviewRemoved)

	metricsFile := s.cfg.Metrics.File
	overrideString(cmd, "metrics-file", &metricsFile)

	strategy, err := cidr.ParseStrategy(mc.Strategy)
	if err != nil {
		return err
	}

	var mm *metrics.MergeMetrics
	if metricsFile != "" {
		mm = metrics.NewMergeMetrics()
	}

	preview := output.Preview{Kept: mc.PreviewKept, Removed: mc.PreviewRemoved}
	once := func(ctx context.Context) error {
		report, err := pipeline.NewMerger(strategy, s.logger).Run(ctx, mc.Input, mc.Output)
		if err != nil {
			return err
		}

		if mm != nil {
			mm.Observe(summaryOf(report))
			if err := mm.WriteTextfile(metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			s.logger.Debug("wrote metrics", "path", metricsFile)
		}

		return s.out.WriteMergeReport(report, preview)
	}

	ctx := contextOf(cmd)
	if watchMode, _ := cmd.Flags().GetBool("watch"); !watchMode {
		return once(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(watch.Options{
		Path:       mc.Input,
		RunOnStart: true,
		OnChange:   once,
		Logger:     s.logger,
	})
	return w.Run(ctx)
}

func summaryOf(r pipeline.Report) metrics.Summary {
	return metrics.Summary{
		Lines:    r.Original,
		Unique:   r.Deduplicated,
		Skipped:  r.Skipped,
		Kept:     r.Merged,
		Removed:  r.Removed,
		Covered:  r.Covered,
		Duration: r.Duration,
		Finished: r.Finished,
	}
}
