package server

import (
	"context"
	"time"

	"trendpub/internal/faults"
	"trendpub/internal/rpc"
	"trendpub/internal/storage"
	"trendpub/internal/workflow"
)

// TriggerWorkflowMethod is the triggerWorkflow JSON-RPC method. It shares
// the trigger path with the admin endpoint.
func TriggerWorkflowMethod(trigger WorkflowTrigger) rpc.Handler {
	return func(ctx context.Context, params map[string]any) (any, error) {
		workflowType, _ := params["workflowType"].(string)
		if workflowType == "" {
			return nil, faults.Validation("缺少 workflowType")
		}
		payload, _ := params["payload"].(map[string]any)

		if err := trigger.Trigger(ctx, workflow.Type(workflowType), payload); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "workflowType": workflowType}, nil
	}
}

// ArticleSink is the ledger subset the recordArticle method writes.
type ArticleSink interface {
	Append(ctx context.Context, input storage.ArticleInput) error
}

// RecordArticleMethod is the recordArticle JSON-RPC method. Publishing
// pipelines call it after a successful publish so the article shows up in
// the admin console.
func RecordArticleMethod(sink ArticleSink) rpc.Handler {
	return func(ctx context.Context, params map[string]any) (any, error) {
		title, _ := params["title"].(string)
		if title == "" {
			return nil, faults.Validation("缺少 title")
		}
		platform, _ := params["platform"].(string)
		if platform == "" {
			return nil, faults.Validation("缺少 platform")
		}
		url, _ := params["url"].(string)
		if url == "" {
			return nil, faults.Validation("缺少 url")
		}

		input := storage.ArticleInput{
			Title:    title,
			Platform: platform,
			URL:      url,
		}
		input.Summary, _ = params["summary"].(string)
		input.WorkflowType, _ = params["workflowType"].(string)
		if raw, ok := params["publishedAt"].(string); ok && raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, faults.Validation("无效的 publishedAt: %s", raw)
			}
			input.PublishedAt = parsed
		}

		if err := sink.Append(ctx, input); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true}, nil
	}
}
