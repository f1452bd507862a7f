// Package logger provides logging implementations for pipeline execution.
//
// The logger package offers leveled logging of execution progress at the
// action, repair and insight levels. Implementations are thread-safe and
// support various output destinations (console, file).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/actuator/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs execution progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// color.NoColor already honors NO_COLOR and non-TTY output
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, colorLevel(level), message)
		return
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// colorStatus colors an execution status by outcome class.
func colorStatus(status string) string {
	switch {
	case status == models.StatusCompleted, status == models.StatusAlreadyExists, status == models.StatusRetrySuccess:
		return color.New(color.FgGreen).Sprint(status)
	case models.IsUnknownStatus(status):
		return color.New(color.FgYellow).Sprint(status)
	case status == models.StatusImplemented:
		return color.New(color.FgCyan).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}

// LogActionResult logs one dispatched action at INFO level.
// Format: "[HH:MM:SS] <type>/<action> -> <status> (verified|unverified) [: error]"
func (cl *ConsoleLogger) LogActionResult(action models.Action, result models.ExecutionResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	status := result.Status
	if cl.colorOutput {
		status = colorStatus(status)
	}
	line := fmt.Sprintf("[%s] %s -> %s (%s)", timestamp(), action, status, verifiedLabel(result.Verified))
	if reason := resultError(result); reason != "" {
		line += ": " + reason
	}
	fmt.Fprintln(cl.writer, line)
}

// LogRepair logs the failure analysis and fix outcomes at WARN level.
func (cl *ConsoleLogger) LogRepair(analysis models.FailureAnalysis, fixes []models.FixResult) {
	if cl.writer == nil || !cl.shouldLog("warn") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	header := fmt.Sprintf("Repairing %d failed action(s)", len(analysis.FailurePatterns))
	if cl.colorOutput {
		header = color.New(color.FgYellow, color.Bold).Sprint(header)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ts, header)
	for _, p := range analysis.CommonPatterns {
		fmt.Fprintf(&b, "[%s]   pattern %s x%d (%s)\n", ts, p.Pattern, p.Frequency, p.Priority)
	}
	for _, issue := range analysis.SystemicIssues {
		fmt.Fprintf(&b, "[%s]   issue %s x%d (%s)\n", ts, issue.Issue, issue.AffectedActions, issue.Priority)
	}
	for _, fix := range fixes {
		status := fix.Status
		if cl.colorOutput {
			if status == models.FixSuccess {
				status = color.New(color.FgGreen).Sprint(status)
			} else {
				status = color.New(color.FgRed).Sprint(status)
			}
		}
		if fix.TimedOut {
			status += " (timed out)"
		}
		fmt.Fprintf(&b, "[%s]   fix %s/%s: %s\n", ts, fix.Fix.Type, fix.Fix.Action, status)
	}
	io.WriteString(cl.writer, b.String())
}

// LogOutcome logs the per-insight result at INFO level.
// Format: "[HH:MM:SS] Insight <summary>: <status> (<ok>/<total> actions, <rate>%)"
func (cl *ConsoleLogger) LogOutcome(outcome models.ExecutionOutcome) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	status := outcome.Record.Status
	if cl.colorOutput {
		if outcome.ExecutionSuccessful {
			status = color.New(color.FgGreen).Sprint(status)
		} else {
			status = color.New(color.FgRed).Sprint(status)
		}
	}
	fmt.Fprintf(cl.writer, "[%s] Insight %q: %s (%d/%d actions, %.0f%%)\n",
		timestamp(), outcome.Record.InsightSummary, status,
		outcome.SuccessfulActions, outcome.ActionsExecuted, outcome.SuccessRate*100)
}

// LogSummary logs the history-wide execution summary at INFO level.
func (cl *ConsoleLogger) LogSummary(summary models.ExecutionSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var b strings.Builder

	if cl.colorOutput {
		fmt.Fprintf(&b, "[%s] %s\n", ts, color.New(color.Bold).Sprint("=== Execution Summary ==="))
		fmt.Fprintf(&b, "[%s] Total executions: %d\n", ts, summary.Total)
		fmt.Fprintf(&b, "[%s] %s\n", ts, color.New(color.FgGreen).Sprintf("Successful: %d", summary.Successful))
		if summary.Failed > 0 {
			fmt.Fprintf(&b, "[%s] %s\n", ts, color.New(color.FgRed).Sprintf("Failed: %d", summary.Failed))
		} else {
			fmt.Fprintf(&b, "[%s] Failed: %d\n", ts, summary.Failed)
		}
	} else {
		fmt.Fprintf(&b, "[%s] === Execution Summary ===\n", ts)
		fmt.Fprintf(&b, "[%s] Total executions: %d\n", ts, summary.Total)
		fmt.Fprintf(&b, "[%s] Successful: %d\n", ts, summary.Successful)
		fmt.Fprintf(&b, "[%s] Failed: %d\n", ts, summary.Failed)
	}

	if last := summary.LastExecution; last != nil {
		fmt.Fprintf(&b, "[%s] Last execution: %q %s at %s\n",
			ts, last.InsightSummary, last.Status, last.Timestamp.Format(time.RFC3339))
	}
	io.WriteString(cl.writer, b.String())
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func verifiedLabel(v bool) string {
	if v {
		return "verified"
	}
	return "unverified"
}

func resultError(result models.ExecutionResult) string {
	if result.Error != "" {
		return result.Error
	}
	return result.VerificationError
}

// formatDuration converts a time.Duration to a human-readable string.
// Sub-second durations are shown in milliseconds.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                                       {}
func (n *NoOpLogger) LogDebug(string)                                       {}
func (n *NoOpLogger) LogInfo(string)                                        {}
func (n *NoOpLogger) LogWarn(string)                                        {}
func (n *NoOpLogger) LogError(string)                                       {}
func (n *NoOpLogger) LogActionResult(models.Action, models.ExecutionResult) {}
func (n *NoOpLogger) LogRepair(models.FailureAnalysis, []models.FixResult)  {}
func (n *NoOpLogger) LogOutcome(models.ExecutionOutcome)                    {}
