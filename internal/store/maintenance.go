package store

import (
	"context"
	"fmt"
	"time"
)

// RetryFailed re-queues articles whose last generation attempt failed. With
// no ids every failed attempt is retried; with ids only those articles are.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE articles SET status = ?, updated_at = ?
             WHERE status = ? AND id IN (
                 SELECT article_id FROM generation_records WHERE status = ?
             )`,
			ArticleQueued,
			now,
			ArticleDraft,
			RecordFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed articles: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, ArticleQueued, now, ArticleDraft)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE articles SET status = ?, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected articles: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckInProgress re-queues articles left claimed by a crashed process.
// The next claim resets their generation records, so the records are left
// untouched here.
func (s *Store) ResetStuckInProgress(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE articles SET status = ?, updated_at = ? WHERE status = ?`,
		ArticleQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
		ArticleInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck articles: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes articles still in draft whose generation attempt
// failed, along with their records.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM articles
         WHERE status = ? AND id IN (
             SELECT article_id FROM generation_records WHERE status = ?
         )`,
		ArticleDraft,
		RecordFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear failed articles: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all articles and their generation records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM articles`)
	if err != nil {
		return 0, fmt.Errorf("clear articles: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of articles grouped by status.
func (s *Store) Stats(ctx context.Context) (map[ArticleStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM articles GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("article stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[ArticleStatus]int)
	for rows.Next() {
		var status ArticleStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates article state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case ArticleQueued:
			health.Queued += count
		case ArticleInProgress:
			health.InProgress += count
		case ArticleReady:
			health.Ready += count
		case ArticleReview:
			health.Review += count
		case ArticlePublished:
			health.Published += count
		}
	}
	return health, nil
}
