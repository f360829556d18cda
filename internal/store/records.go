package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateOrReset prepares the generation record for a fresh attempt. A missing
// record is created in "pending"; an existing one has every phase payload
// wiped and its status reset, keeping only cross-attempt fields such as the
// related-articles list.
func (s *Store) CreateOrReset(ctx context.Context, articleID int64) (*GenerationRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO generation_records (
            article_id, status, progress, artifacts_json, created_at, updated_at, started_at
        ) VALUES (?, ?, 0, '{}', ?, ?, ?)
        ON CONFLICT(article_id) DO UPDATE SET
            status = excluded.status,
            progress = 0,
            research_json = NULL,
            draft_text = NULL,
            validation_report = NULL,
            quality_report = NULL,
            audit_json = NULL,
            schema_json = NULL,
            artifacts_json = '{}',
            error_message = NULL,
            error_details_json = NULL,
            updated_at = excluded.updated_at,
            started_at = excluded.started_at,
            completed_at = NULL`,
		articleID,
		RecordPending,
		now,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("create or reset record: %w", err)
	}

	return s.RecordForArticle(ctx, articleID)
}

// RecordForArticle fetches the generation record for an article. Missing
// records yield nil.
func (s *Store) RecordForArticle(ctx context.Context, articleID int64) (*GenerationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM generation_records WHERE article_id = ?`, articleID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// GetRecord fetches a generation record by its own identifier.
func (s *Store) GetRecord(ctx context.Context, id int64) (*GenerationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM generation_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Advance moves a record to the given status and progress and applies the
// patch. Progress never moves backwards; replaying the same call is harmless.
func (s *Store) Advance(ctx context.Context, recordID int64, status RecordStatus, progress int, patch RecordPatch) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	sets := []string{
		"status = ?",
		"progress = CASE WHEN progress > ? THEN progress ELSE ? END",
		"updated_at = ?",
	}
	args := []any{
		status,
		progress,
		progress,
		time.Now().UTC().Format(time.RFC3339Nano),
	}

	patchColumn := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, column+" = ?")
		args = append(args, nullableString(*value))
	}
	patchColumn("research_json", patch.ResearchJSON)
	patchColumn("draft_text", patch.DraftText)
	patchColumn("validation_report", patch.ValidationReport)
	patchColumn("quality_report", patch.QualityReport)
	patchColumn("audit_json", patch.AuditJSON)
	patchColumn("schema_json", patch.SchemaJSON)
	patchColumn("related_json", patch.RelatedJSON)

	args = append(args, recordID)
	query := `UPDATE generation_records SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	if _, err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("advance record: %w", err)
	}
	return nil
}

// MarkFailed moves a record to its terminal failed state with the error
// payload attached.
func (s *Store) MarkFailed(ctx context.Context, recordID int64, message, detailsJSON string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE generation_records
         SET status = ?, error_message = ?, error_details_json = ?,
             updated_at = ?, completed_at = ?
         WHERE id = ?`,
		RecordFailed,
		nullableString(message),
		nullableString(detailsJSON),
		now,
		now,
		recordID,
	)
	if err != nil {
		return fmt.Errorf("mark record failed: %w", err)
	}
	return nil
}

// MarkCompleted moves a record to its terminal completed state.
func (s *Store) MarkCompleted(ctx context.Context, recordID int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE generation_records
         SET status = ?, progress = 100, updated_at = ?, completed_at = ?
         WHERE id = ?`,
		RecordCompleted,
		now,
		now,
		recordID,
	)
	if err != nil {
		return fmt.Errorf("mark record completed: %w", err)
	}
	return nil
}

const recordColumns = "id, article_id, status, progress, research_json, draft_text, validation_report, quality_report, audit_json, schema_json, artifacts_json, related_json, error_message, error_details_json, created_at, updated_at, started_at, completed_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*GenerationRecord, error) {
	var (
		id           int64
		articleID    int64
		statusStr    string
		progress     int
		research     sql.NullString
		draft        sql.NullString
		validation   sql.NullString
		quality      sql.NullString
		audit        sql.NullString
		schema       sql.NullString
		artifacts    sql.NullString
		related      sql.NullString
		errorMessage sql.NullString
		errorDetails sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&articleID,
		&statusStr,
		&progress,
		&research,
		&draft,
		&validation,
		&quality,
		&audit,
		&schema,
		&artifacts,
		&related,
		&errorMessage,
		&errorDetails,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	record := &GenerationRecord{
		ID:               id,
		ArticleID:        articleID,
		Status:           RecordStatus(statusStr),
		Progress:         progress,
		ResearchJSON:     research.String,
		DraftText:        draft.String,
		ValidationReport: validation.String,
		QualityReport:    quality.String,
		AuditJSON:        audit.String,
		SchemaJSON:       schema.String,
		ArtifactsJSON:    artifacts.String,
		RelatedJSON:      related.String,
		ErrorMessage:     errorMessage.String,
		ErrorDetailsJSON: errorDetails.String,
	}
	if record.ArtifactsJSON == "" {
		record.ArtifactsJSON = "{}"
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			record.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			record.CompletedAt = &completed
		}
	}
	return record, nil
}
