package store

import (
	"strings"
	"time"
)

// ArticleStatus represents the lifecycle of an article.
type ArticleStatus string

const (
	ArticleDraft      ArticleStatus = "draft"
	ArticleQueued     ArticleStatus = "queued"
	ArticleInProgress ArticleStatus = "in_progress"
	ArticleReady      ArticleStatus = "ready"
	ArticleReview     ArticleStatus = "review"
	ArticlePublished  ArticleStatus = "published"
	ArticleArchived   ArticleStatus = "archived"
)

var allArticleStatuses = []ArticleStatus{
	ArticleDraft,
	ArticleQueued,
	ArticleInProgress,
	ArticleReady,
	ArticleReview,
	ArticlePublished,
	ArticleArchived,
}

var articleStatusSet = func() map[ArticleStatus]struct{} {
	set := make(map[ArticleStatus]struct{}, len(allArticleStatuses))
	for _, status := range allArticleStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllArticleStatuses returns the ordered list of known article statuses.
func AllArticleStatuses() []ArticleStatus {
	cp := make([]ArticleStatus, len(allArticleStatuses))
	copy(cp, allArticleStatuses)
	return cp
}

// ParseArticleStatus converts a string into a known ArticleStatus.
func ParseArticleStatus(value string) (ArticleStatus, bool) {
	normalized := ArticleStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := articleStatusSet[normalized]
	return normalized, ok
}

// RecordStatus names the generation phase a record has reached.
type RecordStatus string

const (
	RecordPending      RecordStatus = "pending"
	RecordResearching  RecordStatus = "researching"
	RecordIllustrating RecordStatus = "illustrating"
	RecordDrafting     RecordStatus = "drafting"
	RecordCapturing    RecordStatus = "capturing"
	RecordReviewing    RecordStatus = "reviewing"
	RecordValidating   RecordStatus = "validating"
	RecordRemediating  RecordStatus = "remediating"
	RecordFinalizing   RecordStatus = "finalizing"
	RecordCompleted    RecordStatus = "completed"
	RecordFailed       RecordStatus = "failed"
)

// IsTerminal reports whether the record reached a final state.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordCompleted || s == RecordFailed
}

// Article is a content item persisted in SQLite.
type Article struct {
	ID        int64
	ProjectID string
	Title     string
	Slug      string
	Keywords  []string
	Notes     string
	Status    ArticleStatus
	Summary   string
	Tags      []string
	FinalText string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerationRecord is the durable state of one generation attempt.
type GenerationRecord struct {
	ID               int64
	ArticleID        int64
	Status           RecordStatus
	Progress         int
	ResearchJSON     string
	DraftText        string
	ValidationReport string
	QualityReport    string
	AuditJSON        string
	SchemaJSON       string
	ArtifactsJSON    string
	RelatedJSON      string
	ErrorMessage     string
	ErrorDetailsJSON string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// RecordPatch carries optional payload updates for Advance. Nil fields are
// left untouched; non-nil fields overwrite the stored column.
type RecordPatch struct {
	ResearchJSON     *string
	DraftText        *string
	ValidationReport *string
	QualityReport    *string
	AuditJSON        *string
	SchemaJSON       *string
	RelatedJSON      *string
}

// ClaimOutcome is the result of a TryClaim call.
type ClaimOutcome string

const (
	// Claimed means the caller now exclusively owns the article.
	Claimed ClaimOutcome = "claimed"
	// AlreadyActive means another generation currently holds the claim.
	AlreadyActive ClaimOutcome = "already_active"
	// NotClaimable means the article is in a terminal state or missing.
	NotClaimable ClaimOutcome = "not_claimable"
)

// HealthSummary describes aggregated article counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	InProgress int
	Ready      int
	Review     int
	Published  int
}
