package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signalist/alert-monitor/internal/dedup"
	"github.com/signalist/alert-monitor/internal/metrics"
	"github.com/signalist/alert-monitor/internal/store"
)

// ErrCycleInProgress is returned by RunOnce when another cycle is running.
var ErrCycleInProgress = errors.New("monitor: cycle already in progress")

// AlertStore is the slice of the persistence layer the engine consumes.
type AlertStore interface {
	ListActiveAlerts(ctx context.Context) ([]store.Alert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

// SnapshotProvider fetches market data for one symbol. Implementations must
// be idempotent and side-effect-free.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// Sender delivers one consolidated notification to one user.
type Sender interface {
	SendConsolidated(ctx context.Context, userID string, messages []string) error
}

// Suppressor is the fast-path cooldown cache. The authoritative cooldown
// state is the alert's triggered_at column; the suppressor only keeps
// multiple engine replicas from double-notifying between store writes.
type Suppressor interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string, ttl time.Duration)
}

// Options tune one engine instance. Zero values fall back to defaults.
type Options struct {
	// Cooldown is the minimum interval between notifications for the same
	// alert while its condition stays true.
	Cooldown time.Duration
	// FetchWorkers bounds concurrent snapshot fetches (provider rate limits).
	FetchWorkers int
	// FetchTimeout bounds a single snapshot fetch.
	FetchTimeout time.Duration
}

const (
	defaultCooldown     = 15 * time.Minute
	defaultFetchWorkers = 5
	defaultFetchTimeout = 10 * time.Second
)

// Engine runs the evaluate-and-notify pass over all active alerts.
type Engine struct {
	alerts   AlertStore
	provider SnapshotProvider
	sender   Sender
	suppress Suppressor
	logger   *slog.Logger
	opts     Options

	running sync.Mutex // held for the duration of one cycle

	mu   sync.RWMutex
	last *CycleReport
}

func NewEngine(alerts AlertStore, provider SnapshotProvider, sender Sender, suppress Suppressor, logger *slog.Logger, opts Options) *Engine {
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaultCooldown
	}
	if opts.FetchWorkers <= 0 {
		opts.FetchWorkers = defaultFetchWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Engine{
		alerts:   alerts,
		provider: provider,
		sender:   sender,
		suppress: suppress,
		logger:   logger,
		opts:     opts,
	}
}

// LastReport returns the report of the most recently completed cycle, or nil
// if no cycle has run yet.
func (e *Engine) LastReport() *CycleReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

func (e *Engine) setLast(r *CycleReport) {
	e.mu.Lock()
	e.last = r
	e.mu.Unlock()
}

// RunOnce executes exactly one cycle synchronously. At most one cycle runs at
// a time; a concurrent call returns ErrCycleInProgress without doing work.
//
// A store read failure aborts the cycle with zero work done. Any other
// failure (one symbol's snapshot, one user's notification) is recorded in the
// report and the cycle continues.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) (*CycleReport, error) {
	if !e.running.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer e.running.Unlock()

	start := time.Now()
	report := &CycleReport{StartedAt: now}

	alerts, err := e.alerts.ListActiveAlerts(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list active alerts: %v", err))
		report.Duration = time.Since(start).String()
		e.setLast(report)
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
		return report, fmt.Errorf("list active alerts: %w", err)
	}
	report.Considered = len(alerts)
	metrics.ActiveAlerts.Set(float64(len(alerts)))

	groups := GroupBySymbol(alerts)
	snaps := e.fetchSnapshots(ctx, groups)

	events := e.evaluateAll(ctx, now, groups, snaps, report)
	e.dispatch(ctx, events, report)

	report.Duration = time.Since(start).String()
	e.setLast(report)

	metrics.CyclesTotal.WithLabelValues("completed").Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	metrics.CycleLastSuccess.SetToCurrentTime()

	e.logger.Info("cycle complete",
		"considered", report.Considered,
		"triggered", report.Triggered,
		"sent", report.Sent,
		"failed", report.Failed,
		"not_evaluated", report.NotEvaluated,
		"suppressed", report.Suppressed,
		"duration", report.Duration,
	)
	return report, nil
}

// fetchSnapshots fetches one snapshot per distinct symbol through a bounded
// worker pool. A failed symbol is simply absent from the result; its alerts
// are counted as not evaluated, never as failed.
//
// Cancellation stops new fetches from being issued, but in-flight calls run
// to their own timeout instead of being killed mid-request.
func (e *Engine) fetchSnapshots(ctx context.Context, groups map[string][]store.Alert) map[string]*Snapshot {
	snaps := make(map[string]*Snapshot, len(groups))
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.opts.FetchWorkers)
	)

	for sym := range groups {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.FetchTimeout)
			defer cancel()

			fetchStart := time.Now()
			snap, err := e.provider.FetchSnapshot(fctx, sym)
			metrics.SnapshotFetchDuration.Observe(time.Since(fetchStart).Seconds())
			if err != nil {
				metrics.SnapshotFetchTotal.WithLabelValues("error").Inc()
				e.logger.Warn("snapshot unavailable", "symbol", sym, "error", err)
				return
			}
			metrics.SnapshotFetchTotal.WithLabelValues("ok").Inc()

			mu.Lock()
			snaps[sym] = snap
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return snaps
}

// evaluateAll runs the evaluator over every alert whose symbol has a
// snapshot. Cancellation is observed between symbols only, so a symbol's
// evaluation and its cooldown bookkeeping are all-or-nothing.
func (e *Engine) evaluateAll(ctx context.Context, now time.Time, groups map[string][]store.Alert, snaps map[string]*Snapshot, report *CycleReport) []TriggerEvent {
	// Store writes within a symbol must not be cut off halfway by a cancel
	// that arrives mid-symbol.
	wctx := context.WithoutCancel(ctx)

	var events []TriggerEvent
	for sym, group := range groups {
		if ctx.Err() != nil {
			e.logger.Warn("cycle cancelled during evaluation", "symbol", sym)
			break
		}

		snap, ok := snaps[sym]
		if !ok {
			report.NotEvaluated += len(group)
			metrics.AlertsEvaluatedTotal.WithLabelValues("not_evaluated").Add(float64(len(group)))
			continue
		}

		for _, a := range group {
			outcome, msg := Evaluate(a.Condition, snap)
			switch outcome {
			case Skipped:
				report.Skipped++
				metrics.AlertsEvaluatedTotal.WithLabelValues("skipped").Inc()

			case NoTrigger:
				metrics.AlertsEvaluatedTotal.WithLabelValues("no_trigger").Inc()

			case Trigger:
				if !e.shouldNotify(wctx, &a, now) {
					report.Suppressed++
					metrics.AlertsEvaluatedTotal.WithLabelValues("suppressed").Inc()
					continue
				}

				// Cooldown advances on evaluation, before the send. A
				// failed send is retried only when the condition still
				// holds after the cooldown elapses.
				if err := e.alerts.MarkTriggered(wctx, a.ID, now); err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("mark triggered %s: %v", a.ID, err))
					e.logger.Error("mark triggered failed", "alert_id", a.ID, "error", err)
				}
				if e.suppress != nil {
					e.suppress.Record(wctx, dedup.CooldownKey(a.ID), e.opts.Cooldown)
				}

				events = append(events, TriggerEvent{
					AlertID:  a.ID,
					UserID:   a.UserID,
					Symbol:   sym,
					Message:  msg,
					Snapshot: snap,
					At:       now,
				})
				report.Triggered++
				metrics.AlertsEvaluatedTotal.WithLabelValues("triggered").Inc()
			}
		}
	}
	return events
}

// shouldNotify applies the cooldown policy: fire if the alert has never
// triggered, or the cooldown has elapsed since it last did.
func (e *Engine) shouldNotify(ctx context.Context, a *store.Alert, now time.Time) bool {
	if a.TriggeredAt != nil && now.Sub(*a.TriggeredAt) < e.opts.Cooldown {
		return false
	}
	if e.suppress != nil && e.suppress.AlreadySent(ctx, dedup.CooldownKey(a.ID)) {
		return false
	}
	return true
}

// dispatch groups the cycle's trigger events by user and sends one
// consolidated notification per user. A failed send is recorded and the
// remaining users are still notified; nothing is retried within the cycle.
func (e *Engine) dispatch(ctx context.Context, events []TriggerEvent, report *CycleReport) {
	if len(events) == 0 {
		return
	}

	byUser := make(map[string][]string)
	for _, ev := range events {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev.Message)
	}

	for userID, msgs := range byUser {
		if ctx.Err() != nil {
			e.logger.Warn("cycle cancelled during dispatch")
			break
		}
		if err := e.sender.SendConsolidated(ctx, userID, msgs); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("notify user %s: %v", userID, err))
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			e.logger.Error("send notification failed", "user_id", userID, "alerts", len(msgs), "error", err)
			continue
		}
		report.Sent++
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}
}
