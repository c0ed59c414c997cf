// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package guardian

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

// eventLogName returns the day-partitioned log file name for t.
func eventLogName(t time.Time) string {
	return "events_" + t.Format("20060102") + ".jsonl"
}

// appendEvent appends one event as a JSON line to the current day's log.
func appendEvent(logsDir string, event types.LabEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.ID, err)
	}

	path := filepath.Join(logsDir, eventLogName(event.Timestamp))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to event log: %w", err)
	}
	return nil
}

// saveActionPoints writes the event's action points as a durable JSON
// file named by the event's unix timestamp. The file shape is the
// hand-off contract for whoever works the action-point backlog; new
// entries start out pending.
func (g *Guardian) saveActionPoints(event types.LabEvent) error {
	payload := struct {
		EventID           string    `json:"event_id"`
		Timestamp         time.Time `json:"timestamp"`
		EventType         string    `json:"event_type"`
		Path              string    `json:"path"`
		SignificanceScore float64   `json:"significance_score"`
		ActionPoints      []string  `json:"action_points"`
		Status            string    `json:"status"`
	}{
		EventID:           event.ID,
		Timestamp:         event.Timestamp,
		EventType:         string(event.Kind),
		Path:              event.Path,
		SignificanceScore: event.SignificanceScore,
		ActionPoints:      event.ActionPoints,
		Status:            "pending",
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding action points: %w", err)
	}

	name := fmt.Sprintf("action_points_%d.json", event.Timestamp.Unix())
	path := filepath.Join(g.cfg.ActionPointsDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing action points: %w", err)
	}
	return nil
}
