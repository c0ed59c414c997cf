package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lab-guardian/internal/guardian"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [roots...]",
	Short: "Watch workspace roots and run the triage pipeline",
	Long: `Run bootstraps the content index from every existing file under the
watch roots, then watches for changes: each change is scored, indexed,
turned into a research context, and dispatched when significant enough.
The pipeline drains its queue and writes a final stats snapshot on
SIGINT or SIGTERM.`,
	RunE: runGuardian,
}

func init() {
	runCmd.Flags().String("data-dir", "", "directory for the guardian SQLite database (default indexes)")
	runCmd.Flags().String("logs-dir", "", "directory for event logs and reports (default system_logs)")
	runCmd.Flags().String("endpoint", "", "research endpoint URL (default: file queue only)")
	runCmd.Flags().Duration("maintenance-interval", 0, "housekeeping cadence (default 1h)")
	runCmd.Flags().StringSlice("ignore", nil, "base-name glob patterns to ignore")

	rootCmd.AddCommand(runCmd)
}

// guardianConfig assembles the pipeline config: config file values first,
// then flag overrides. Defaults for anything left unset are applied by
// the guardian itself.
func guardianConfig(cmd *cobra.Command, args []string) types.GuardianConfig {
	var cfg types.GuardianConfig

	cfg.Watch.Roots = viper.GetStringSlice("watch.roots")
	cfg.Watch.IgnorePatterns = viper.GetStringSlice("watch.ignore_patterns")
	cfg.Watch.QueueSize = viper.GetInt("watch.queue_size")
	cfg.Watch.CoalesceWindow = viper.GetDuration("watch.coalesce_window")
	cfg.Watch.EnqueueTimeout = viper.GetDuration("watch.enqueue_timeout")

	cfg.Index.DataDir = viper.GetString("index.data_dir")
	cfg.Index.PreviewBytes = viper.GetInt("index.preview_bytes")
	cfg.Index.MaxKeywords = viper.GetInt("index.max_keywords")

	cfg.Triage.ActiveTopics = viper.GetStringSlice("triage.active_topics")
	cfg.Triage.RelevanceFloor = viper.GetFloat64("triage.relevance_floor")
	cfg.Triage.ActionThreshold = viper.GetFloat64("triage.action_threshold")
	cfg.Triage.DispatchThreshold = viper.GetFloat64("triage.dispatch_threshold")
	cfg.Triage.PaperThreshold = viper.GetFloat64("triage.paper_threshold")

	cfg.Dispatch.QueueDir = viper.GetString("dispatch.queue_dir")
	cfg.Dispatch.PapersDir = viper.GetString("dispatch.papers_dir")
	cfg.Dispatch.EndpointURL = viper.GetString("dispatch.endpoint_url")
	cfg.Dispatch.APIKey = secretDefault("research-api-key", viper.GetString("dispatch.api_key"))
	cfg.Dispatch.Timeout = viper.GetDuration("dispatch.timeout")
	cfg.Dispatch.RequestDeadline = viper.GetDuration("dispatch.request_deadline")

	cfg.Maintenance.Interval = viper.GetDuration("maintenance.interval")
	cfg.Maintenance.LogRetention = viper.GetDuration("maintenance.log_retention")
	cfg.Maintenance.QueueDepthWarn = viper.GetInt("maintenance.queue_depth_warn")

	cfg.LogsDir = viper.GetString("logs_dir")
	cfg.ActionPointsDir = viper.GetString("action_points_dir")
	cfg.DrainTimeout = viper.GetDuration("drain_timeout")

	if len(args) > 0 {
		cfg.Watch.Roots = args
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Index.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("logs-dir"); v != "" {
		cfg.LogsDir = v
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		cfg.Dispatch.EndpointURL = v
	}
	if v, _ := cmd.Flags().GetDuration("maintenance-interval"); v != 0 {
		cfg.Maintenance.Interval = v
	}
	if v, _ := cmd.Flags().GetStringSlice("ignore"); len(v) > 0 {
		cfg.Watch.IgnorePatterns = v
	}
	if len(cfg.Watch.Roots) == 0 {
		cfg.Watch.Roots = []string{"."}
	}
	return cfg
}

func runGuardian(cmd *cobra.Command, args []string) error {
	cfg := guardianConfig(cmd, args)

	g, err := guardian.New(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("setting up guardian: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := g.Start(ctx); err != nil {
		g.Close()
		return fmt.Errorf("starting guardian: %w", err)
	}

	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "shutdown requested")
	g.Stop()

	stats := g.Stats()
	fmt.Fprintf(os.Stderr, "processed %d event(s), indexed %d file(s), sent %d request(s)\n",
		stats.EventsProcessed, stats.FilesIndexed, stats.RequestsSent)
	return nil
}
