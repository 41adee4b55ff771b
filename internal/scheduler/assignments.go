package scheduler

import (
	"context"
	"strings"

	"trendpub/internal/faults"
	"trendpub/internal/workflow"
)

// ConfigSource is the subset of the config store the scheduler depends on.
type ConfigSource interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Assignments reads and writes the weekday to workflow mapping persisted as
// seven independent config keys.
type Assignments struct {
	config ConfigSource
}

// NewAssignments builds the assignment accessor over a config store.
func NewAssignments(config ConfigSource) *Assignments {
	return &Assignments{config: config}
}

// Workflow returns the workflow assigned to the given weekday. The second
// return is false when no workflow is assigned that day.
func (a *Assignments) Workflow(ctx context.Context, day Weekday) (workflow.Type, bool, error) {
	if !day.Valid() {
		return "", false, faults.Validation("无效的星期: %d", day)
	}
	value, ok, err := a.config.Get(ctx, assignmentKey(day))
	if err != nil || !ok {
		return "", false, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false, nil
	}
	return workflow.Type(value), true, nil
}

// Assign upserts the workflow for the given weekday. The identifier is
// persisted verbatim; it is validated against the registry only at dispatch.
func (a *Assignments) Assign(ctx context.Context, day Weekday, t workflow.Type) error {
	if !day.Valid() {
		return faults.Validation("无效的星期: %d", day)
	}
	return a.config.Set(ctx, assignmentKey(day), string(t))
}

// All returns the full seven-day mapping. Unassigned weekdays map to nil so
// callers can render every key explicitly.
func (a *Assignments) All(ctx context.Context) (map[Weekday]*workflow.Type, error) {
	all := make(map[Weekday]*workflow.Type, 7)
	for day := Weekday(1); day <= 7; day++ {
		t, ok, err := a.Workflow(ctx, day)
		if err != nil {
			return nil, err
		}
		if ok {
			assigned := t
			all[day] = &assigned
		} else {
			all[day] = nil
		}
	}
	return all, nil
}
