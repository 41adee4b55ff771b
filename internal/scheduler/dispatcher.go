// Package scheduler owns the recurring daily dispatch: it reads the
// persisted cron schedule, resolves the weekday's assigned workflow, and
// invokes it. A tick's failure is logged and notified, never propagated.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trendpub/internal/logging"
	"trendpub/internal/notify"
	"trendpub/internal/workflow"
)

const (
	// CronExpressionKey is the config key holding the 5-field schedule.
	CronExpressionKey = "CRON_EXPRESSION"
	// DefaultCronExpression fires daily at 03:00.
	DefaultCronExpression = "0 3 * * *"
	// cronJobID is the synthetic invocation id for scheduled runs.
	cronJobID = "cron-job"
)

// CronExpression reads the persisted schedule, falling back to the default
// when the key is absent or blank.
func CronExpression(ctx context.Context, config ConfigSource) (string, error) {
	value, ok, err := config.Get(ctx, CronExpressionKey)
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return DefaultCronExpression, nil
	}
	return value, nil
}

// Config holds dispatcher configuration.
type Config struct {
	Timezone string // IANA name; defaults to Asia/Shanghai
}

// Dispatcher arms the recurring timer and dispatches the weekday's workflow
// on each tick. Ticks are serialized: if a run is still in flight when the
// next tick fires, the new tick is skipped and logged.
type Dispatcher struct {
	cron        *cron.Cron
	config      ConfigSource
	assignments *Assignments
	registry    *workflow.Registry
	notifier    notify.Notifier
	logger      logging.Logger
	metrics     *Metrics
	location    *time.Location
	now         func() time.Time
	stopped     chan struct{}
	stopOnce    sync.Once
}

// New creates a Dispatcher. The notifier may be nil.
func New(cfg Config, config ConfigSource, registry *workflow.Registry,
	notifier notify.Notifier, logger logging.Logger) (*Dispatcher, error) {

	tz := cfg.Timezone
	if tz == "" {
		tz = "Asia/Shanghai"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Dispatcher{
		cron:        newCron(location),
		config:      config,
		assignments: NewAssignments(config),
		registry:    registry,
		notifier:    notifier,
		logger:      logging.OrNop(logger),
		metrics:     defaultMetrics(),
		location:    location,
		now:         time.Now,
		stopped:     make(chan struct{}),
	}, nil
}

func newCron(location *time.Location) *cron.Cron {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return cron.New(
		cron.WithParser(parser),
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
}

// Start reads the schedule, arms the timer, and emits the startup
// notification. The startup notification fires unconditionally, independent
// of whether any tick later succeeds.
func (d *Dispatcher) Start(ctx context.Context) error {
	expr, err := CronExpression(ctx, d.config)
	if err != nil {
		d.logger.Warn("read cron expression failed, using default: %v", err)
		expr = DefaultCronExpression
	}
	d.logger.Info("使用 Cron 表达式: %s", expr)

	if _, err := d.cron.AddFunc(expr, d.tick); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	d.cron.Start()

	if err := d.notifier.Notify(ctx, "定时任务启动", "定时任务启动"); err != nil {
		d.logger.Warn("startup notification failed: %v", err)
	}

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

// Stop drains the scheduler. Safe to call multiple times.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		stopCtx := d.cron.Stop()
		<-stopCtx.Done()
		close(d.stopped)
		d.logger.Info("scheduler stopped")
	})
}

// Done returns a channel that is closed when the dispatcher has fully stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.stopped
}

// tick runs one scheduled dispatch. All failures are handled here; an error
// escaping this function would risk the timer failing to rearm.
func (d *Dispatcher) tick() {
	start := d.now()
	defer d.metrics.observeTick(start)

	ctx := context.Background()
	day := WeekdayOf(start.In(d.location))

	workflowType, ok, err := d.assignments.Workflow(ctx, day)
	if err != nil {
		d.reportFailure(ctx, fmt.Errorf("read assignment for weekday %d: %w", day, err))
		return
	}
	if !ok {
		d.logger.Info("周%d没有配置对应的工作流", day)
		d.metrics.countDispatch("skipped")
		return
	}

	d.logger.Info("开始执行周%d的工作流: %s", day, workflowType)
	w, err := d.registry.Resolve(workflowType)
	if err != nil {
		d.reportFailure(ctx, err)
		return
	}

	inv := workflow.Invocation{
		Payload:   map[string]any{},
		ID:        cronJobID,
		Timestamp: start,
	}
	if err := w.Execute(ctx, inv); err != nil {
		d.reportFailure(ctx, err)
		return
	}

	d.logger.Info("周%d的工作流 %s 执行完成", day, workflowType)
	d.metrics.countDispatch("success")
}

func (d *Dispatcher) reportFailure(ctx context.Context, err error) {
	d.logger.Error("工作流执行失败: %v", err)
	d.metrics.countDispatch("failure")
	if notifyErr := d.notifier.Notify(ctx, "工作流执行失败", err.Error()); notifyErr != nil {
		d.logger.Warn("failure notification not delivered: %v", notifyErr)
	}
}
