// Package pipeline wires the insight filter, plan synthesis, dispatch,
// verification, repair and history into the per-insight execution loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/actuator/internal/analysis"
	"github.com/harrison/actuator/internal/dispatch"
	"github.com/harrison/actuator/internal/executors"
	"github.com/harrison/actuator/internal/history"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/planner"
	"github.com/harrison/actuator/internal/repair"
	"github.com/harrison/actuator/internal/verify"
)

// ErrNotInitialized is returned by read operations before Initialize.
var ErrNotInitialized = errors.New("pipeline is not initialized")

// Logger receives pipeline progress. Implementations must be safe for
// concurrent use.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogActionResult(action models.Action, result models.ExecutionResult)
	LogRepair(analysis models.FailureAnalysis, fixes []models.FixResult)
	LogOutcome(outcome models.ExecutionOutcome)
}

// Config holds the settings Initialize uses to build collaborators that
// were not injected.
type Config struct {
	Workspace      string
	HistoryBackend string
	HistoryPath    string
	Cooldown       time.Duration
	Samples        int
	ActionTimeout  time.Duration
}

// Engine runs insights through plan, dispatch, verify, repair and retry.
// Actions within one insight execute sequentially.
type Engine struct {
	cfg        Config
	logger     Logger
	now        func() time.Time
	classifier planner.Classifier

	mu          sync.Mutex
	initialized bool
	ownsHistory bool
	history     history.Store
	dispatcher  *dispatch.Dispatcher
	gate        *verify.Gate
	synth       *planner.Synthesizer
	filter      *planner.Filter
	fixes       *repair.FixPlanner
	retry       *repair.RetryCoordinator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the progress logger. Nil disables logging.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithHistory injects an already-open history store. The engine does not
// close injected stores.
func WithHistory(s history.Store) Option {
	return func(e *Engine) {
		e.history = s
	}
}

// WithExecutors injects the dispatcher and gate instead of installing the
// built-in executors.
func WithExecutors(d *dispatch.Dispatcher, g *verify.Gate) Option {
	return func(e *Engine) {
		e.dispatcher = d
		e.gate = g
	}
}

// WithClassifier replaces the default rule table.
func WithClassifier(c planner.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithClock overrides the time source for record timestamps and the
// cooldown window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine. Collaborators are built by Initialize.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	if e.cfg.Samples < 1 {
		e.cfg.Samples = planner.DefaultSamples
	}
	if e.cfg.Cooldown <= 0 {
		e.cfg.Cooldown = planner.DefaultCooldown
	}
	e.synth = planner.NewSynthesizer(e.classifier, e.cfg.Samples)
	return e
}

// Initialize opens the history and registers executors. It is safe to call
// repeatedly; after a failure the next call retries.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initializeLocked(ctx)
}

func (e *Engine) initializeLocked(ctx context.Context) error {
	if e.initialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.dispatcher == nil || e.gate == nil {
		d := dispatch.New(dispatch.WithActionTimeout(e.cfg.ActionTimeout))
		g := verify.NewGate()
		if err := executors.Install(d, g, e.cfg.Workspace); err != nil {
			return fmt.Errorf("install executors: %w", err)
		}
		e.dispatcher, e.gate = d, g
	}

	if e.history == nil {
		store, err := history.Open(e.cfg.HistoryBackend, e.cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		e.history = store
		e.ownsHistory = true

		if fs, ok := store.(*history.FileStore); ok && fs.Skipped() > 0 {
			e.logger.LogWarn(fmt.Sprintf("history %s: ignored %d unreadable record(s)", fs.Path(), fs.Skipped()))
		}
	}

	runner := repair.RunnerFunc(e.run)
	e.filter = planner.NewFilter(e.history, planner.WithCooldown(e.cfg.Cooldown), planner.WithClock(e.now))
	e.fixes = repair.NewFixPlanner(runner)
	e.retry = repair.NewRetryCoordinator(runner)
	e.initialized = true

	e.logger.LogDebug(fmt.Sprintf("pipeline initialized (workspace=%s, samples=%d, cooldown=%s)",
		e.cfg.Workspace, e.synth.Samples(), e.cfg.Cooldown))
	return nil
}

// Close releases the history store if the engine opened it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	e.initialized = false
	if e.ownsHistory {
		e.ownsHistory = false
		store := e.history
		e.history = nil
		return store.Close()
	}
	return nil
}

// CreateActionPlan returns a single-sample plan for insights without
// executing anything.
func (e *Engine) CreateActionPlan(insights []models.Insight) []models.Action {
	return e.synth.CreateActionPlan(insights)
}

// SynthesizePlan returns the majority-vote plan ExecuteInsight would run.
func (e *Engine) SynthesizePlan(insights []models.Insight) []models.Action {
	return e.synth.Synthesize(insights)
}

// run dispatches and verifies one action.
func (e *Engine) run(ctx context.Context, action models.Action) (*models.ExecutionResult, error) {
	result, err := e.dispatcher.Try(ctx, action)
	e.gate.Apply(ctx, action, result)
	switch {
	case dispatch.IsTimeoutError(err):
		e.logger.LogWarn(fmt.Sprintf("%s exceeded the action timeout", action))
	case dispatch.IsExecutorError(err):
		e.logger.LogDebug(fmt.Sprintf("executor fault on %s: %v", action, err))
	}
	e.logger.LogActionResult(action, *result)
	return result, err
}

// ExecuteInsight runs the full loop for one insight and appends one record
// to the history. The engine is initialized on first use.
//
// The returned error is non-nil when initialization fails (the outcome is
// then nil) or when the record could not be persisted (the outcome is
// still complete).
func (e *Engine) ExecuteInsight(ctx context.Context, insight models.Insight) (*models.ExecutionOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initializeLocked(ctx); err != nil {
		return nil, err
	}

	e.logger.LogInfo(fmt.Sprintf("executing insight: %s", insight.Summary))

	plan := e.synth.Synthesize([]models.Insight{insight})

	results := make([]models.ExecutionResult, len(plan))
	for i, action := range plan {
		result, _ := e.run(ctx, action)
		results[i] = *result
	}

	var failed []models.ActionResult
	for i := range results {
		if results[i].Failed() {
			failed = append(failed, models.ActionResult{Action: plan[i], Result: &results[i]})
		}
	}

	var (
		fa    *models.FailureAnalysis
		fixes []models.FixResult
	)
	if len(failed) > 0 {
		fa = analysis.Analyze(failed)
		fixes = e.fixes.Apply(ctx, fa.RecommendedFixes)
		e.logger.LogRepair(*fa, fixes)
		e.retry.RetryAndMerge(ctx, failed)
	}

	outcome := summarize(plan, results)
	outcome.Analysis = fa
	outcome.Fixes = fixes

	status := models.RecordFailed
	if outcome.ExecutionSuccessful {
		status = models.RecordCompleted
	}
	outcome.Record = models.ExecutionRecord{
		ID:               uuid.New().String(),
		InsightID:        insight.ID,
		InsightSummary:   insight.Summary,
		ActionPlan:       plan,
		ExecutionResults: results,
		Timestamp:        e.now(),
		Status:           status,
	}

	e.logger.LogOutcome(*outcome)

	// Mutations already applied must be recorded even after cancellation.
	if err := e.history.Append(context.WithoutCancel(ctx), outcome.Record); err != nil {
		e.logger.LogError(fmt.Sprintf("failed to persist execution record: %v", err))
		return outcome, fmt.Errorf("persist execution record: %w", err)
	}
	return outcome, nil
}

func summarize(plan []models.Action, results []models.ExecutionResult) *models.ExecutionOutcome {
	outcome := &models.ExecutionOutcome{ActionsExecuted: len(plan)}
	for i := range results {
		switch {
		case results[i].Succeeded():
			outcome.SuccessfulActions++
		case results[i].Failed():
			outcome.FailedActions++
		}
	}
	outcome.ExecutionSuccessful = outcome.SuccessfulActions > 0
	outcome.RealChangesMade = outcome.SuccessfulActions > 0
	if len(plan) > 0 {
		outcome.SuccessRate = float64(outcome.SuccessfulActions) / float64(len(plan))
	}
	return outcome
}

// ProcessInsights filters out recently completed insights and executes the
// rest in order. Invalid insights are skipped with a warning. Persistence
// failures do not stop the batch; they are joined into the returned error.
func (e *Engine) ProcessInsights(ctx context.Context, insights []models.Insight) ([]*models.ExecutionOutcome, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}

	batch := make([]models.Insight, 0, len(insights))
	for _, insight := range insights {
		if err := insight.Validate(); err != nil {
			e.logger.LogWarn(fmt.Sprintf("skipping insight: %v", err))
			continue
		}
		batch = append(batch, insight)
	}
	models.EnsureIDs(batch)

	e.mu.Lock()
	filter := e.filter
	e.mu.Unlock()

	admitted, err := filter.FilterCompleted(batch)
	if err != nil {
		e.logger.LogWarn(fmt.Sprintf("history unavailable, executing all insights: %v", err))
	}
	if skipped := len(batch) - len(admitted); skipped > 0 {
		e.logger.LogInfo(fmt.Sprintf("skipping %d insight(s) completed within %s", skipped, filter.Cooldown()))
	}

	var (
		outcomes []*models.ExecutionOutcome
		errs     []error
	)
	for _, insight := range admitted {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		outcome, err := e.ExecuteInsight(ctx, insight)
		if err != nil {
			errs = append(errs, fmt.Errorf("insight %s: %w", insight.ID, err))
		}
		if outcome != nil {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, errors.Join(errs...)
}

// ExecutionSummary aggregates every record in the history.
func (e *Engine) ExecutionSummary(ctx context.Context) (*models.ExecutionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, ErrNotInitialized
	}

	records, err := e.history.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	summary := &models.ExecutionSummary{
		Total:   len(records),
		History: records,
	}
	for i := range records {
		if records[i].Completed() {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		summary.LastExecution = &last
	}
	return summary, nil
}

type nopLogger struct{}

func (nopLogger) LogDebug(string)                                       {}
func (nopLogger) LogInfo(string)                                        {}
func (nopLogger) LogWarn(string)                                        {}
func (nopLogger) LogError(string)                                       {}
func (nopLogger) LogActionResult(models.Action, models.ExecutionResult) {}
func (nopLogger) LogRepair(models.FailureAnalysis, []models.FixResult)  {}
func (nopLogger) LogOutcome(models.ExecutionOutcome)                    {}
