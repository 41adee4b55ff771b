package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trendpub/internal/workflow"
)

// memoryConfig is an in-memory ConfigSource.
type memoryConfig struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newMemoryConfig() *memoryConfig {
	return &memoryConfig{values: map[string]string{}}
}

func (m *memoryConfig) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryConfig) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// recordingNotifier captures alerts.
type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

// countingWorkflow records executions.
type countingWorkflow struct {
	mu    sync.Mutex
	calls []workflow.Invocation
	err   error
}

func (w *countingWorkflow) Execute(_ context.Context, inv workflow.Invocation) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, inv)
	return w.err
}

func (w *countingWorkflow) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func TestWeekdayOf(t *testing.T) {
	// 2026-08-30 is a Sunday, 2026-08-31 a Monday.
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if got := WeekdayOf(sunday); got != 7 {
		t.Fatalf("Sunday = %d, want 7", got)
	}
	for offset := 1; offset <= 6; offset++ {
		day := sunday.AddDate(0, 0, offset)
		if got := WeekdayOf(day); got != Weekday(offset) {
			t.Fatalf("weekday of %v = %d, want %d", day, got, offset)
		}
	}
}

func TestAssignmentKeyFormat(t *testing.T) {
	if got := assignmentKey(3); got != "3_of_week_workflow" {
		t.Fatalf("assignmentKey(3) = %q", got)
	}
}

func TestCronExpressionDefault(t *testing.T) {
	expr, err := CronExpression(context.Background(), newMemoryConfig())
	if err != nil {
		t.Fatalf("CronExpression: %v", err)
	}
	if expr != "0 3 * * *" {
		t.Fatalf("expr = %q, want default", expr)
	}
}

func TestCronExpressionPersisted(t *testing.T) {
	config := newMemoryConfig()
	config.values[CronExpressionKey] = "30 8 * * *"

	expr, err := CronExpression(context.Background(), config)
	if err != nil {
		t.Fatalf("CronExpression: %v", err)
	}
	if expr != "30 8 * * *" {
		t.Fatalf("expr = %q", expr)
	}
}

func TestAssignmentsRoundTrip(t *testing.T) {
	assignments := NewAssignments(newMemoryConfig())
	ctx := context.Background()

	if err := assignments.Assign(ctx, 3, workflow.TypeWeixinArticle); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	got, ok, err := assignments.Workflow(ctx, 3)
	if err != nil || !ok {
		t.Fatalf("Workflow: ok=%v err=%v", ok, err)
	}
	if got != workflow.TypeWeixinArticle {
		t.Fatalf("got %q", got)
	}

	if _, ok, _ := assignments.Workflow(ctx, 4); ok {
		t.Fatal("weekday 4 must be unassigned")
	}
}

func TestAssignmentsRejectOutOfRange(t *testing.T) {
	assignments := NewAssignments(newMemoryConfig())
	ctx := context.Background()

	if err := assignments.Assign(ctx, 9, "bogus"); err == nil {
		t.Fatal("Assign(9) must fail")
	}
	if _, _, err := assignments.Workflow(ctx, 0); err == nil {
		t.Fatal("Workflow(0) must fail")
	}
}

func TestAssignmentsAllHasSevenKeys(t *testing.T) {
	assignments := NewAssignments(newMemoryConfig())
	ctx := context.Background()
	if err := assignments.Assign(ctx, 1, workflow.TypeWeixinArticle); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	all, err := assignments.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("len = %d, want 7", len(all))
	}
	if all[1] == nil || *all[1] != workflow.TypeWeixinArticle {
		t.Fatalf("weekday 1 = %v", all[1])
	}
	for day := Weekday(2); day <= 7; day++ {
		if all[day] != nil {
			t.Fatalf("weekday %d should be nil", day)
		}
	}
}

func newTestDispatcher(t *testing.T, config ConfigSource, registry *workflow.Registry,
	notifier *recordingNotifier) *Dispatcher {
	t.Helper()
	d, err := New(Config{Timezone: "Asia/Shanghai"}, config, registry, notifier, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestTickDispatchesAssignedWorkflow(t *testing.T) {
	config := newMemoryConfig()
	wf := &countingWorkflow{}
	registry := workflow.NewRegistry(map[workflow.Type]workflow.Workflow{
		workflow.TypeWeixinArticle: wf,
	})
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)

	// Pin the clock to a Wednesday and assign that weekday.
	wednesday := time.Date(2026, 9, 2, 3, 0, 0, 0, d.location)
	d.now = func() time.Time { return wednesday }
	if err := d.assignments.Assign(context.Background(), 3, workflow.TypeWeixinArticle); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	d.tick()

	if wf.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", wf.callCount())
	}
	wf.mu.Lock()
	inv := wf.calls[0]
	wf.mu.Unlock()
	if inv.ID != "cron-job" {
		t.Fatalf("invocation id = %q", inv.ID)
	}
	if len(inv.Payload) != 0 {
		t.Fatalf("payload = %v, want empty", inv.Payload)
	}
	if notifier.count() != 0 {
		t.Fatal("successful tick must not notify")
	}
}

func TestTickSkipsUnassignedWeekday(t *testing.T) {
	config := newMemoryConfig()
	wf := &countingWorkflow{}
	registry := workflow.NewRegistry(map[workflow.Type]workflow.Workflow{
		workflow.TypeWeixinArticle: wf,
	})
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)
	d.now = func() time.Time { return time.Date(2026, 9, 2, 3, 0, 0, 0, d.location) }

	d.tick()

	if wf.callCount() != 0 {
		t.Fatal("no workflow may run on an unassigned weekday")
	}
	if notifier.count() != 0 {
		t.Fatal("skipping is a normal outcome, no notification")
	}
}

func TestTickNotifiesOnExecutionFailure(t *testing.T) {
	config := newMemoryConfig()
	wf := &countingWorkflow{err: errors.New("publish failed")}
	registry := workflow.NewRegistry(map[workflow.Type]workflow.Workflow{
		workflow.TypeWeixinArticle: wf,
	})
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)
	d.now = func() time.Time { return time.Date(2026, 9, 2, 3, 0, 0, 0, d.location) }
	if err := d.assignments.Assign(context.Background(), 3, workflow.TypeWeixinArticle); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	d.tick()

	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
}

func TestTickNotifiesOnUnknownWorkflow(t *testing.T) {
	config := newMemoryConfig()
	registry := workflow.NewRegistry(nil)
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)
	d.now = func() time.Time { return time.Date(2026, 9, 2, 3, 0, 0, 0, d.location) }
	if err := d.assignments.Assign(context.Background(), 3, "ghost-workflow"); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	d.tick()

	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
}

func TestStartEmitsStartupNotification(t *testing.T) {
	config := newMemoryConfig()
	registry := workflow.NewRegistry(nil)
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want startup alert", notifier.count())
	}

	cancel()
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestStartRejectsInvalidPersistedExpression(t *testing.T) {
	config := newMemoryConfig()
	config.values[CronExpressionKey] = "not a cron line"
	registry := workflow.NewRegistry(nil)
	notifier := &recordingNotifier{}
	d := newTestDispatcher(t, config, registry, notifier)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("Start must fail on an invalid persisted expression")
	}
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	_, err := New(Config{Timezone: "Mars/Olympus"}, newMemoryConfig(),
		workflow.NewRegistry(nil), nil, nil)
	if err == nil {
		t.Fatal("expected timezone error")
	}
}
