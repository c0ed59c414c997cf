// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package guardian

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

const (
	statsSnapshotName = "guardian_stats.yaml"
	healthReportName  = "health_report.yaml"
)

// maintenanceLoop runs the periodic housekeeping pass. A failed pass is
// logged and retried on the next tick; it never stops the scheduler
// (prd005-pipeline R5.3).
func (g *Guardian) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.Maintenance.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.runMaintenance()
		}
	}
}

// runMaintenance executes one housekeeping pass: stats snapshot, log
// retention pruning, and the health report. Each task fails
// independently.
func (g *Guardian) runMaintenance() {
	if err := g.writeStatsSnapshot(); err != nil {
		fmt.Fprintf(g.w, "warning: maintenance: stats snapshot: %v\n", err)
	}
	if err := g.pruneEventLogs(time.Now()); err != nil {
		fmt.Fprintf(g.w, "warning: maintenance: pruning event logs: %v\n", err)
	}
	if err := g.writeHealthReport(); err != nil {
		fmt.Fprintf(g.w, "warning: maintenance: health report: %v\n", err)
	}
}

func (g *Guardian) writeStatsSnapshot() error {
	state := g.State()
	snap := types.StatsSnapshot{
		Timestamp:         time.Now(),
		UptimeSeconds:     time.Since(g.startedAt).Seconds(),
		Stats:             g.Stats(),
		State:             state.String(),
		BootstrapComplete: state == StateActive || state == StateDraining || state == StateStopped,
		QueueDepth:        g.QueueDepth(),
	}
	return writeYAML(filepath.Join(g.cfg.LogsDir, statsSnapshotName), snap)
}

// pruneEventLogs removes day-partitioned event logs older than the
// configured retention window. The day is taken from the file name so
// that restored backups with fresh mtimes still age out.
func (g *Guardian) pruneEventLogs(now time.Time) error {
	entries, err := os.ReadDir(g.cfg.LogsDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", g.cfg.LogsDir, err)
	}

	cutoff := now.Add(-g.cfg.Maintenance.LogRetention)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "events_") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		day, err := time.Parse("20060102", strings.TrimSuffix(strings.TrimPrefix(name, "events_"), ".jsonl"))
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			if err := os.Remove(filepath.Join(g.cfg.LogsDir, name)); err != nil {
				fmt.Fprintf(g.w, "warning: removing stale log %s: %v\n", name, err)
			}
		}
	}
	return nil
}

func (g *Guardian) writeHealthReport() error {
	stats := g.Stats()
	depth := g.QueueDepth()
	state := g.State()

	components := map[string]string{
		"watcher":  componentStatus(state == StateActive),
		"indexer":  "active",
		"research": "active",
		"dispatch": "active",
	}

	var recs []string
	if stats.EventsProcessed > 10000 {
		recs = append(recs, "consider archiving old event logs")
	}
	if stats.FilesIndexed > 50000 {
		recs = append(recs, "database optimization recommended")
	}
	if depth > g.cfg.Maintenance.QueueDepthWarn {
		recs = append(recs, fmt.Sprintf("event queue depth %d exceeds %d; consumer may be falling behind",
			depth, g.cfg.Maintenance.QueueDepthWarn))
	}

	status := "healthy"
	if depth > g.cfg.Maintenance.QueueDepthWarn {
		status = "degraded"
	}

	report := types.HealthReport{
		Timestamp:       time.Now(),
		SystemStatus:    status,
		Components:      components,
		Stats:           stats,
		QueueDepth:      depth,
		Recommendations: recs,
	}
	return writeYAML(filepath.Join(g.cfg.LogsDir, healthReportName), report)
}

func componentStatus(active bool) string {
	if active {
		return "active"
	}
	return "stopped"
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
