package storage

import (
	"context"
	"database/sql"
	"time"

	"trendpub/internal/faults"
)

// publishedAtLayout keeps lexicographic and chronological ordering aligned
// for records written under the same local-time convention.
const publishedAtLayout = "2006-01-02 15:04:05"

// Article is one row of the publish ledger. Summary and WorkflowType are
// nil when the publishing workflow did not supply them.
type Article struct {
	Title        string  `json:"title"`
	Summary      *string `json:"summary"`
	WorkflowType *string `json:"workflowType"`
	Platform     string  `json:"platform"`
	URL          string  `json:"url"`
	PublishedAt  string  `json:"publishedAt"`
}

// ArticleInput describes a publish event to append to the ledger.
type ArticleInput struct {
	Title        string
	Summary      string
	WorkflowType string
	Platform     string
	URL          string
	PublishedAt  time.Time
}

// ArticleLedger is the append-only record of published articles. Rows are
// never mutated or deleted once written.
type ArticleLedger struct {
	db       *sql.DB
	location *time.Location
}

// NewArticleLedger builds a ledger whose publish timestamps are normalized
// to the given location.
func NewArticleLedger(d *DB, location *time.Location) *ArticleLedger {
	if location == nil {
		location = time.Local
	}
	return &ArticleLedger{db: d.db, location: location}
}

// Append records a published article. A zero PublishedAt is filled with the
// current time; optional fields absent on input are stored as explicit NULLs.
func (l *ArticleLedger) Append(ctx context.Context, input ArticleInput) error {
	publishedAt := input.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}
	normalized := publishedAt.In(l.location).Format(publishedAtLayout)

	summary := sql.NullString{String: input.Summary, Valid: input.Summary != ""}
	workflowType := sql.NullString{String: input.WorkflowType, Valid: input.WorkflowType != ""}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO published_articles (title, summary, workflow_type, platform, url, published_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		input.Title, summary, workflowType, input.Platform, input.URL, normalized)
	if err != nil {
		return faults.Upstream(err, "写入文章记录失败")
	}
	return nil
}

// Recent returns at most limit articles ordered newest first.
func (l *ArticleLedger) Recent(ctx context.Context, limit int) ([]Article, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT title, summary, workflow_type, platform, url, published_at
FROM published_articles
ORDER BY published_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, faults.Upstream(err, "读取文章记录失败")
	}
	defer rows.Close()

	articles := make([]Article, 0, limit)
	for rows.Next() {
		var (
			article      Article
			summary      sql.NullString
			workflowType sql.NullString
		)
		if err := rows.Scan(&article.Title, &summary, &workflowType,
			&article.Platform, &article.URL, &article.PublishedAt); err != nil {
			return nil, faults.Upstream(err, "读取文章记录失败")
		}
		if summary.Valid {
			article.Summary = &summary.String
		}
		if workflowType.Valid {
			article.WorkflowType = &workflowType.String
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Upstream(err, "读取文章记录失败")
	}
	return articles, nil
}
