// Package surrealdb implements the Question Supply Engine's Store on top
// of SurrealDB, following the query and table-bootstrap idioms the rest of
// this codebase's SurrealDB layer uses.
package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/contenthash"
	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Store implements interfaces.Store using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// New connects to SurrealDB, signs in, selects the namespace/database and
// defines the tables and unique indexes the Store depends on.
func New(ctx context.Context, logger *common.Logger, cfg common.StorageConfig) (*Store, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	bootstrap := []string{
		"DEFINE TABLE IF NOT EXISTS recipient SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS question SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS assignment SCHEMALESS",
		"DEFINE INDEX IF NOT EXISTS question_content_hash ON question FIELDS content_hash UNIQUE",
		"DEFINE INDEX IF NOT EXISTS assignment_recipient_question ON assignment FIELDS recipient_id, question_id UNIQUE",
		"DEFINE INDEX IF NOT EXISTS question_topic ON question FIELDS topic",
		"DEFINE INDEX IF NOT EXISTS question_age_band ON question FIELDS min_age, max_age",
	}
	for _, sql := range bootstrap {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to bootstrap schema (%s): %w", sql, err)
		}
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB store initialized")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, s.db, "RETURN 1", nil)
	return err
}

// EnsureRecipient creates the recipient record on first observation.
// INSERT IGNORE leaves an existing record's first_seen untouched.
func (s *Store) EnsureRecipient(ctx context.Context, recipientID string) error {
	sql := `INSERT IGNORE INTO recipient (id, identifier, first_seen) VALUES ($rid, $identifier, $first_seen)`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("recipient", recipientID),
		"identifier": recipientID,
		"first_seen": time.Now(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to ensure recipient: %w", err)
	}
	return nil
}

func (s *Store) InsertQuestion(ctx context.Context, q *models.Question) (models.InsertOutcome, error) {
	if !q.Valid() {
		return models.InsertOutcomeInvalid, nil
	}

	q.ContentHash = contenthash.Compute(q.Prompt, q.Answer, q.Options)
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	exists, err := s.hashExists(ctx, q.ContentHash)
	if err != nil {
		return "", err
	}
	if exists {
		return models.InsertOutcomeDuplicate, nil
	}

	sql := `CREATE question CONTENT {
		prompt: $prompt, options: $options, answer: $answer, topic: $topic,
		min_age: $min_age, max_age: $max_age, content_hash: $content_hash, created_at: $created_at
	}`
	vars := map[string]any{
		"prompt":       q.Prompt,
		"options":      q.Options,
		"answer":       q.Answer,
		"topic":        q.Topic,
		"min_age":      q.MinAge,
		"max_age":      q.MaxAge,
		"content_hash": q.ContentHash,
		"created_at":   q.CreatedAt,
	}

	results, err := surrealdb.Query[[]rawQuestion](ctx, s.db, sql, vars)
	if err != nil {
		if strings.Contains(err.Error(), "already contains") || strings.Contains(err.Error(), "unique") {
			return models.InsertOutcomeDuplicate, nil
		}
		return "", fmt.Errorf("failed to insert question: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		q.ID = recordIDToInt64((*results)[0].Result[0].ID)
	}

	return models.InsertOutcomeInserted, nil
}

func (s *Store) hashExists(ctx context.Context, hash string) (bool, error) {
	sql := "SELECT count() AS cnt FROM question WHERE content_hash = $hash GROUP ALL"
	vars := map[string]any{"hash": hash}

	type countResult struct {
		Cnt int `json:"cnt"`
	}
	results, err := surrealdb.Query[[]countResult](ctx, s.db, sql, vars)
	if err != nil {
		return false, fmt.Errorf("failed to check content hash: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt > 0, nil
	}
	return false, nil
}

func (s *Store) ImportBatch(ctx context.Context, qs []*models.Question) (imported, skipped int, err error) {
	for _, q := range qs {
		outcome, insErr := s.InsertQuestion(ctx, q)
		if insErr != nil {
			return imported, skipped, insErr
		}
		switch outcome {
		case models.InsertOutcomeInserted:
			imported++
		default:
			skipped++
		}
	}
	return imported, skipped, nil
}

// buildFilterClause returns a WHERE fragment and bind vars for the shared
// age/topic filtering semantics of SelectUnassigned and CountMatching.
func buildFilterClause(age *int, topic string) (string, map[string]any) {
	clauses := []string{}
	vars := map[string]any{}

	if age != nil {
		clauses = append(clauses, "min_age <= $age AND max_age >= $age")
		vars["age"] = *age
	}

	topicFilter := strings.TrimSpace(topic)
	if topicFilter != "" && !strings.EqualFold(topicFilter, models.TopicRandom) {
		clauses = append(clauses, "string::lowercase(topic) CONTAINS $topic")
		vars["topic"] = strings.ToLower(topicFilter)
	}

	if len(clauses) == 0 {
		return "", vars
	}
	return " AND " + strings.Join(clauses, " AND "), vars
}

func (s *Store) SelectUnassigned(ctx context.Context, recipientID string, age *int, topic string, limit int) ([]*models.Question, error) {
	if limit <= 0 {
		return nil, nil
	}

	filterClause, filterVars := buildFilterClause(age, topic)
	sql := `SELECT id, prompt, options, answer, topic, min_age, max_age, content_hash, created_at
		FROM question
		WHERE id NOTINSIDE (SELECT VALUE question_id FROM assignment WHERE recipient_id = $recipient_id)` +
		filterClause + ` LIMIT $limit`

	vars := map[string]any{"recipient_id": recipientID, "limit": limit}
	for k, v := range filterVars {
		vars[k] = v
	}

	results, err := surrealdb.Query[[]rawQuestion](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to select unassigned questions: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	out := make([]*models.Question, 0, len((*results)[0].Result))
	for i := range (*results)[0].Result {
		out = append(out, (*results)[0].Result[i].toModel())
	}
	return out, nil
}

// AssignMany inserts one assignment row per question, each with its own
// INSERT IGNORE keyed by a deterministic "<recipient>_<question>" record
// ID. A pair that already exists — because a concurrent caller already
// claimed it — is ignored and returns no row, and a unique-index violation
// on (recipient_id, question_id) is skipped; only questions whose insert
// returned a row are reported as won, satisfying the "losers see fewer,
// never duplicates" rule. The inserts are separate statements, not one
// transaction.
func (s *Store) AssignMany(ctx context.Context, recipientID string, questionIDs []int64, now time.Time) ([]int64, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	won := make([]int64, 0, len(questionIDs))
	for _, qid := range questionIDs {
		sql := `INSERT IGNORE INTO assignment (id, recipient_id, question_id, assigned_at, seen) VALUES ($id, $recipient_id, $question_id, $assigned_at, false)`
		vars := map[string]any{
			"id":           fmt.Sprintf("%s_%d", recipientID, qid),
			"recipient_id": recipientID,
			"question_id":  qid,
			"assigned_at":  now,
		}
		res, err := surrealdb.Query[[]any](ctx, s.db, sql, vars)
		if err != nil {
			// A unique-index violation means another caller already won
			// this (recipient, question) pair; skip it, don't fail the batch.
			if strings.Contains(err.Error(), "already contains") || strings.Contains(err.Error(), "unique") {
				continue
			}
			return won, fmt.Errorf("failed to assign question %d: %w", qid, err)
		}
		if res == nil || len(*res) == 0 || len((*res)[0].Result) == 0 {
			// INSERT IGNORE returns no row when the pair already exists.
			continue
		}
		won = append(won, qid)
	}
	return won, nil
}

func (s *Store) CountMatching(ctx context.Context, age *int, topic string) (int, error) {
	filterClause, filterVars := buildFilterClause(age, topic)
	where := "true"
	if filterClause != "" {
		where = strings.TrimPrefix(filterClause, " AND ")
	}
	sql := "SELECT count() AS cnt FROM question WHERE " + where + " GROUP ALL"

	type countResult struct {
		Cnt int `json:"cnt"`
	}
	results, err := surrealdb.Query[[]countResult](ctx, s.db, sql, filterVars)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching questions: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt, nil
	}
	return 0, nil
}

// rawQuestion mirrors the question table's shape for SurrealDB struct
// mapping; id arrives as a RecordID rather than the int64 the domain uses.
type rawQuestion struct {
	ID          surrealmodels.RecordID `json:"id"`
	Prompt      string                 `json:"prompt"`
	Options     []string               `json:"options"`
	Answer      string                 `json:"answer"`
	Topic       string                 `json:"topic"`
	MinAge      int                    `json:"min_age"`
	MaxAge      int                    `json:"max_age"`
	ContentHash string                 `json:"content_hash"`
	CreatedAt   time.Time              `json:"created_at"`
}

func (r *rawQuestion) toModel() *models.Question {
	return &models.Question{
		ID:          recordIDToInt64(r.ID),
		Prompt:      r.Prompt,
		Options:     r.Options,
		Answer:      r.Answer,
		Topic:       r.Topic,
		MinAge:      r.MinAge,
		MaxAge:      r.MaxAge,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
	}
}

// recordIDToInt64 derives a stable int64 from a SurrealDB record ID's
// string identifier. SurrealDB record IDs are not natively integers, so
// the Store mints a deterministic numeric surrogate from the ULID-like
// identifier SurrealDB assigns, for callers that key on Question.ID.
func recordIDToInt64(id surrealmodels.RecordID) int64 {
	return stableHash(fmt.Sprintf("%v", id.ID))
}

func stableHash(s string) int64 {
	var h int64 = 1469598103934665603 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= int64(s[i])
		h *= 1099511628211
	}
	if h < 0 {
		h = -h
	}
	return h
}

var _ interfaces.Store = (*Store)(nil)
