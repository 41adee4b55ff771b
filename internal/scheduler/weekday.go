package scheduler

import (
	"fmt"
	"time"
)

// Weekday numbers days 1=Monday through 7=Sunday, the convention used by
// every day-of-week lookup in this service.
type Weekday int

// Valid reports whether w is inside the 1-7 domain.
func (w Weekday) Valid() bool {
	return w >= 1 && w <= 7
}

// WeekdayOf converts a time to this service's weekday convention. Go's
// native Sunday (0) maps to 7; Monday through Saturday pass through.
func WeekdayOf(t time.Time) Weekday {
	native := int(t.Weekday())
	if native == 0 {
		return 7
	}
	return Weekday(native)
}

// assignmentKey is the persisted config key holding the workflow assigned
// to a weekday. The format is an external interface shared with existing
// deployments; do not change it.
func assignmentKey(w Weekday) string {
	return fmt.Sprintf("%d_of_week_workflow", w)
}
