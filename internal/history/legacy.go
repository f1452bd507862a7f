package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
)

// legacyRecord is one element of the old whole-file JSON array history.
// Its timestamps are ISO-8601 without a zone, written in local time.
type legacyRecord struct {
	InsightID        string                   `json:"insight_id"`
	InsightSummary   string                   `json:"insight_summary"`
	ActionPlan       []models.Action          `json:"action_plan"`
	ExecutionResults []models.ExecutionResult `json:"execution_results"`
	Timestamp        string                   `json:"timestamp"`
	Status           string                   `json:"status"`
	Error            string                   `json:"error"`
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseLegacyTime(s string) (time.Time, error) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// LegacyBackupPath is where the original array file is kept after migration.
func LegacyBackupPath(path string) string {
	return path + ".legacy.json"
}

// migrateLegacy rewrites a JSON array history at path as JSON Lines.
// Files already in JSON Lines form, empty files and missing files are left
// alone.
func migrateLegacy(path string) error {
	if !isLegacy(path) {
		return nil
	}

	lock := filelock.NewFileLock(filelock.LockPath(path))
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	// Another process may have migrated while we waited.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}

	var legacy []legacyRecord
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return fmt.Errorf("parse legacy history: %w", err)
	}

	var buf bytes.Buffer
	for _, lr := range legacy {
		rec := models.ExecutionRecord{
			InsightID:        lr.InsightID,
			InsightSummary:   lr.InsightSummary,
			ActionPlan:       lr.ActionPlan,
			ExecutionResults: lr.ExecutionResults,
			Status:           lr.Status,
			Error:            lr.Error,
		}
		if lr.Timestamp != "" {
			ts, err := parseLegacyTime(lr.Timestamp)
			if err != nil {
				return err
			}
			rec.Timestamp = ts
		}
		prepare(&rec)

		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal migrated record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := filelock.AtomicWrite(LegacyBackupPath(path), data); err != nil {
		return fmt.Errorf("back up legacy history: %w", err)
	}
	return filelock.AtomicWrite(path, buf.Bytes())
}

func isLegacy(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	trimmed := bytes.TrimSpace(buf[:n])
	return len(trimmed) > 0 && trimmed[0] == '['
}
