package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trendpub/internal/faults"
	"trendpub/internal/logging"
)

// Webhook invokes a workflow that runs outside this process, reachable over
// HTTP. The invocation is POSTed as JSON; any non-2xx response fails the run.
// This is the seam where the real publishing pipeline plugs in.
type Webhook struct {
	workflowType Type
	url          string
	client       *http.Client
	logger       logging.Logger
}

// NewWebhook builds a webhook-backed workflow for the given identifier.
func NewWebhook(workflowType Type, url string, logger logging.Logger) *Webhook {
	return &Webhook{
		workflowType: workflowType,
		url:          url,
		client:       &http.Client{Timeout: 10 * time.Minute},
		logger:       logging.OrNop(logger),
	}
}

// Execute posts the invocation to the configured endpoint and awaits it.
func (w *Webhook) Execute(ctx context.Context, inv Invocation) error {
	body, err := json.Marshal(map[string]any{
		"workflowType": w.workflowType,
		"payload":      inv.Payload,
		"id":           inv.ID,
		"timestamp":    inv.Timestamp.UnixMilli(),
	})
	if err != nil {
		return faults.Internal(err, "编码工作流请求失败")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return faults.Internal(err, "构建工作流请求失败")
	}
	req.Header.Set("Content-Type", "application/json")

	w.logger.Info("invoking workflow %s (id=%s)", w.workflowType, inv.ID)
	resp, err := w.client.Do(req)
	if err != nil {
		return faults.Upstream(err, "工作流 %s 调用失败", w.workflowType)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return faults.Upstream(
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
			"工作流 %s 执行失败", w.workflowType)
	}
	return nil
}
