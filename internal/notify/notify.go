// Package notify routes operational alerts to an external push channel.
// Delivery is best effort; callers log failures and move on.
package notify

import "context"

// Notifier sends a short operational alert.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Nop is a no-op notifier for tests or when notifications are disabled.
type Nop struct{}

// Notify discards the alert.
func (Nop) Notify(context.Context, string, string) error {
	return nil
}
