package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trendpub/internal/logging"
)

// Runner is the manual trigger path shared by the JSON-RPC method and the
// admin endpoint. It resolves the identifier, builds an invocation, and
// awaits the workflow synchronously.
type Runner struct {
	registry *Registry
	logger   logging.Logger
}

// NewRunner builds a Runner over the given registry.
func NewRunner(registry *Registry, logger logging.Logger) *Runner {
	return &Runner{
		registry: registry,
		logger:   logging.OrNop(logger),
	}
}

// Trigger resolves workflowType and executes it with the given payload.
// A nil payload is normalized to an empty map.
func (r *Runner) Trigger(ctx context.Context, workflowType Type, payload map[string]any) error {
	w, err := r.registry.Resolve(workflowType)
	if err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	inv := Invocation{
		Payload:   payload,
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
	}
	r.logger.Info("manual trigger: workflow=%s id=%s", workflowType, inv.ID)

	if err := w.Execute(ctx, inv); err != nil {
		r.logger.Error("workflow %s failed: %v", workflowType, err)
		return err
	}
	r.logger.Info("workflow %s completed (id=%s)", workflowType, inv.ID)
	return nil
}
