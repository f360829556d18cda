package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scribe/internal/textutil"
)

// Enqueue inserts a new article and places it on the generation queue.
func (s *Store) Enqueue(ctx context.Context, projectID, title string, keywords []string, notes string) (*Article, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	keywordsJSON, err := marshalStrings(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO articles (
            project_id, title, slug, keywords_json, notes, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID,
		title,
		textutil.Slugify(title),
		keywordsJSON,
		nullableString(notes),
		ArticleQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetArticle(ctx, id)
}

// GetArticle fetches an article by identifier. Missing articles yield nil.
func (s *Store) GetArticle(ctx context.Context, id int64) (*Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// ListArticles returns articles filtered by status set (or all articles when
// no status is provided), ordered by creation time.
func (s *Store) ListArticles(ctx context.Context, statuses ...ArticleStatus) ([]*Article, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + articleColumns + ` FROM articles`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// NextQueued returns the oldest queued article, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Article, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+articleColumns+` FROM articles WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		ArticleQueued,
	)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued article: %w", err)
	}
	return article, nil
}

// UpdateArticle persists changes to an existing article.
func (s *Store) UpdateArticle(ctx context.Context, article *Article) error {
	if article == nil {
		return errors.New("article is nil")
	}
	article.UpdatedAt = time.Now().UTC()

	keywordsJSON, err := marshalStrings(article.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	tagsJSON, err := marshalStrings(article.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.execWithRetry(
		ctx,
		`UPDATE articles
         SET title = ?, slug = ?, keywords_json = ?, notes = ?, status = ?,
             summary = ?, tags_json = ?, final_text = ?, updated_at = ?
         WHERE id = ?`,
		article.Title,
		nullableString(article.Slug),
		keywordsJSON,
		nullableString(article.Notes),
		article.Status,
		nullableString(article.Summary),
		tagsJSON,
		nullableString(article.FinalText),
		article.UpdatedAt.Format(time.RFC3339Nano),
		article.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// SetArticleStatus moves an article to the given status unconditionally.
func (s *Store) SetArticleStatus(ctx context.Context, id int64, status ArticleStatus) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE articles SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set article status: %w", err)
	}
	return nil
}

// TryClaim attempts to take exclusive ownership of an article for generation.
// The status read and write happen in one UPDATE so two workers racing on the
// same article cannot both win.
func (s *Store) TryClaim(ctx context.Context, id int64) (ClaimOutcome, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE articles SET status = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?, ?)`,
		ArticleInProgress,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		ArticleInProgress,
		ArticlePublished,
		ArticleArchived,
	)
	if err != nil {
		return NotClaimable, fmt.Errorf("claim article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NotClaimable, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return Claimed, nil
	}

	var status string
	row := s.db.QueryRowContext(ctx, `SELECT status FROM articles WHERE id = ?`, id)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotClaimable, nil
		}
		return NotClaimable, fmt.Errorf("read article status: %w", err)
	}
	if ArticleStatus(status) == ArticleInProgress {
		return AlreadyActive, nil
	}
	return NotClaimable, nil
}

// RemoveArticle deletes an article (and its generation record) by identifier.
func (s *Store) RemoveArticle(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// EnsureProject creates the project row when missing. Existing credit
// balances are never overwritten.
func (s *Store) EnsureProject(ctx context.Context, id string, credits int) error {
	if id == "" {
		return errors.New("project id is empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO projects (id, credits, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO NOTHING`,
		id,
		credits,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	return nil
}

// DeductCredit decrements the project's credit balance by one. Returns false
// when the balance is already exhausted.
func (s *Store) DeductCredit(ctx context.Context, projectID string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE projects SET credits = credits - 1, updated_at = ?
         WHERE id = ? AND credits > 0`,
		time.Now().UTC().Format(time.RFC3339Nano),
		projectID,
	)
	if err != nil {
		return false, fmt.Errorf("deduct credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ProjectCredits reports the remaining credit balance for a project.
func (s *Store) ProjectCredits(ctx context.Context, projectID string) (int, error) {
	var credits int
	row := s.db.QueryRowContext(ctx, `SELECT credits FROM projects WHERE id = ?`, projectID)
	if err := row.Scan(&credits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("project %q not found", projectID)
		}
		return 0, fmt.Errorf("read project credits: %w", err)
	}
	return credits, nil
}

const articleColumns = "id, project_id, title, slug, keywords_json, notes, status, summary, tags_json, final_text, created_at, updated_at"

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		id         int64
		projectID  string
		title      string
		slug       sql.NullString
		keywords   sql.NullString
		notes      sql.NullString
		statusStr  string
		summary    sql.NullString
		tags       sql.NullString
		finalText  sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&projectID,
		&title,
		&slug,
		&keywords,
		&notes,
		&statusStr,
		&summary,
		&tags,
		&finalText,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	article := &Article{
		ID:        id,
		ProjectID: projectID,
		Title:     title,
		Slug:      slug.String,
		Notes:     notes.String,
		Status:    ArticleStatus(statusStr),
		Summary:   summary.String,
		FinalText: finalText.String,
	}
	article.Keywords = unmarshalStrings(keywords.String)
	article.Tags = unmarshalStrings(tags.String)

	if created, err := parseTimeString(createdRaw.String); err == nil {
		article.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		article.UpdatedAt = updated
	}
	return article, nil
}

func marshalStrings(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalStrings(data string) []string {
	if data == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
