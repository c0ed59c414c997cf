package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest guardian stats and health report",
	Long: `Status prints the most recent stats snapshot and health report written
by a running guardian's maintenance scheduler. It reads the report files
from the logs directory and does not contact the running process.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("logs-dir", "", "directory holding guardian reports (default system_logs)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logsDir, _ := cmd.Flags().GetString("logs-dir")
	if logsDir == "" {
		logsDir = viper.GetString("logs_dir")
	}
	if logsDir == "" {
		logsDir = "system_logs"
	}

	statsPath := filepath.Join(logsDir, "guardian_stats.yaml")
	data, err := os.ReadFile(statsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no stats snapshot at %s (has the guardian run?)", statsPath)
		}
		return fmt.Errorf("reading stats snapshot: %w", err)
	}

	var snap types.StatsSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding stats snapshot: %w", err)
	}

	fmt.Printf("state:            %s\n", snap.State)
	fmt.Printf("snapshot taken:   %s\n", snap.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("uptime:           %.0fs\n", snap.UptimeSeconds)
	fmt.Printf("queue depth:      %d\n", snap.QueueDepth)
	fmt.Printf("events processed: %d (%d dropped)\n", snap.Stats.EventsProcessed, snap.Stats.EventsDropped)
	fmt.Printf("files indexed:    %d\n", snap.Stats.FilesIndexed)
	fmt.Printf("action points:    %d\n", snap.Stats.ActionPointsGenerated)
	fmt.Printf("requests sent:    %d\n", snap.Stats.RequestsSent)
	fmt.Printf("papers triggered: %d\n", snap.Stats.PapersTriggered)

	healthPath := filepath.Join(logsDir, "health_report.yaml")
	if data, err := os.ReadFile(healthPath); err == nil {
		var report types.HealthReport
		if err := yaml.Unmarshal(data, &report); err != nil {
			return fmt.Errorf("decoding health report: %w", err)
		}
		fmt.Printf("system status:    %s\n", report.SystemStatus)
		for _, rec := range report.Recommendations {
			fmt.Printf("recommendation:   %s\n", rec)
		}
	}
	return nil
}
