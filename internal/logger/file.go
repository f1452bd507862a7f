package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/actuator/internal/models"
)

// FileLogger logs pipeline events to files in a logs directory.
// It creates timestamped per-run log files, per-insight detailed logs,
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and implements the pipeline.Logger interface.
type FileLogger struct {
	logDir      string
	runLog      *os.File
	runFile     string
	insightsDir string
	logLevel    string
	mu          sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir with the default "info" level.
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger with a custom log level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	insightsDir := filepath.Join(logDir, "insights")
	if err := os.MkdirAll(insightsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create insights directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:      logDir,
		runLog:      file,
		runFile:     runFile,
		insightsDir: insightsDir,
		logLevel:    normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== Actuator Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogActionResult records one dispatched action at INFO level.
func (fl *FileLogger) LogActionResult(action models.Action, result models.ExecutionResult) {
	if !fl.shouldLog("info") {
		return
	}
	line := fmt.Sprintf("[%s] %s -> %s (%s)", timestamp(), action, result.Status, verifiedLabel(result.Verified))
	if reason := resultError(result); reason != "" {
		line += ": " + reason
	}
	fl.writeRunLog(line + "\n")
}

// LogRepair records the failure analysis and every fix outcome at WARN level.
func (fl *FileLogger) LogRepair(analysis models.FailureAnalysis, fixes []models.FixResult) {
	if !fl.shouldLog("warn") {
		return
	}

	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] === Repair: %d failed action(s) ===\n", ts, len(analysis.FailurePatterns))
	for _, p := range analysis.FailurePatterns {
		fmt.Fprintf(&b, "[%s]   %s/%s: %s (%s)\n", ts, p.ActionType, p.ActionName, p.Pattern, p.Error)
	}
	for _, p := range analysis.CommonPatterns {
		fmt.Fprintf(&b, "[%s]   common pattern %s x%d (%s)\n", ts, p.Pattern, p.Frequency, p.Priority)
	}
	for _, issue := range analysis.SystemicIssues {
		fmt.Fprintf(&b, "[%s]   systemic issue %s x%d (%s)\n", ts, issue.Issue, issue.AffectedActions, issue.Priority)
	}
	for _, fix := range fixes {
		fmt.Fprintf(&b, "[%s]   fix %s/%s: %s", ts, fix.Fix.Type, fix.Fix.Action, fix.Status)
		if fix.TimedOut {
			b.WriteString(" timed out")
		}
		if fix.Error != "" {
			fmt.Fprintf(&b, " (%s)", fix.Error)
		}
		b.WriteString("\n")
	}
	fl.writeRunLog(b.String())
}

// LogOutcome records the per-insight result in the run log and writes a
// detailed log to insights/insight-<record id>.log.
func (fl *FileLogger) LogOutcome(outcome models.ExecutionOutcome) {
	rec := outcome.Record
	if fl.shouldLog("info") {
		fl.writeRunLog(fmt.Sprintf("[%s] Insight %q: %s (%d/%d actions)\n",
			timestamp(), rec.InsightSummary, rec.Status, outcome.SuccessfulActions, outcome.ActionsExecuted))
	}
	if err := fl.writeInsightLog(outcome); err != nil {
		fl.writeRunLog(fmt.Sprintf("[%s] [ERROR] %v\n", timestamp(), err))
	}
}

func (fl *FileLogger) writeInsightLog(outcome models.ExecutionOutcome) error {
	rec := outcome.Record
	name := rec.ID
	if name == "" {
		name = rec.Timestamp.Format("20060102-150405.000000000")
	}
	path := filepath.Join(fl.insightsDir, fmt.Sprintf("insight-%s.log", name))

	var b strings.Builder
	fmt.Fprintf(&b, "=== Insight: %s ===\n", rec.InsightSummary)
	fmt.Fprintf(&b, "Insight ID: %s\n", rec.InsightID)
	fmt.Fprintf(&b, "Status: %s\n", rec.Status)
	fmt.Fprintf(&b, "Success rate: %.0f%%\n\n", outcome.SuccessRate*100)

	for i, action := range rec.ActionPlan {
		fmt.Fprintf(&b, "#### Action %d: %s (%s, %s)\n", i+1, action, action.TargetSystem, action.Priority)
		if i >= len(rec.ExecutionResults) {
			b.WriteString("Result: missing\n\n")
			continue
		}
		res := rec.ExecutionResults[i]
		fmt.Fprintf(&b, "Status: %s (%s)\n", res.Status, verifiedLabel(res.Verified))
		if res.Duration > 0 {
			fmt.Fprintf(&b, "Duration: %s\n", formatDuration(res.Duration))
		}
		if reason := resultError(res); reason != "" {
			fmt.Fprintf(&b, "Error: %s\n", reason)
		}
		if res.Retry != nil {
			fmt.Fprintf(&b, "Retry: %s", res.Retry.Status)
			if res.Retry.TimedOut {
				b.WriteString(" (timed out)")
			}
			b.WriteString("\n")
		}
		if diff, ok := res.Details["diff"].(string); ok && diff != "" {
			fmt.Fprintf(&b, "Diff:\n%s\n", diff)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Completed at: %s\n", rec.Timestamp.Format(time.RFC3339))

	fl.mu.Lock()
	defer fl.mu.Unlock()
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write insight log: %w", err)
	}
	return nil
}

// LogSummary records the history-wide summary at INFO level.
func (fl *FileLogger) LogSummary(summary models.ExecutionSummary) {
	if !fl.shouldLog("info") {
		return
	}
	ts := timestamp()
	fl.writeRunLog(fmt.Sprintf(
		"\n[%s] === EXECUTION SUMMARY ===\n"+
			"[%s] Total executions: %d\n"+
			"[%s] Successful:       %d\n"+
			"[%s] Failed:           %d\n",
		ts, ts, summary.Total, ts, summary.Successful, ts, summary.Failed))
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
