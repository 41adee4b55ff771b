// Package workflow defines the contract between the control plane and the
// publishing workflows it dispatches, and the registry that resolves
// workflow identifiers to invocable instances.
package workflow

import (
	"context"
	"time"
)

// Type names a registered workflow implementation.
type Type string

// TypeWeixinArticle is the daily WeChat article publishing workflow.
const TypeWeixinArticle Type = "weixin-article-workflow"

// Invocation carries the inputs of a single workflow run.
type Invocation struct {
	Payload   map[string]any `json:"payload"`
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
}

// Workflow is an invocable publishing pipeline. Implementations own all
// business logic; the control plane only dispatches and awaits them.
type Workflow interface {
	Execute(ctx context.Context, inv Invocation) error
}

// Func adapts a plain function to the Workflow interface.
type Func func(ctx context.Context, inv Invocation) error

// Execute calls f.
func (f Func) Execute(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}
