// Package interfaces defines service contracts for the supply engine.
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/trivia/internal/models"
)

// Store is the persistent question repository. Implementations must
// enforce content-hash uniqueness on questions and (recipient_id,
// question_id) uniqueness on assignments.
type Store interface {
	// InsertQuestion computes the content hash, validates structural
	// invariants, and attempts the insert.
	InsertQuestion(ctx context.Context, q *models.Question) (models.InsertOutcome, error)

	// ImportBatch inserts each question independently; duplicates are
	// counted, not fatal.
	ImportBatch(ctx context.Context, qs []*models.Question) (imported, skipped int, err error)

	// SelectUnassigned returns up to limit questions matching the filters
	// that are not present in the recipient's assignment set. age and
	// topic are optional filters: a nil age skips the age filter, an
	// empty or "random" topic (any casing) skips the topic filter.
	SelectUnassigned(ctx context.Context, recipientID string, age *int, topic string, limit int) ([]*models.Question, error)

	// AssignMany atomically records assignments for recipientID. The
	// operation is serializable per recipient: no two concurrent callers
	// for the same recipient may claim the same question. Rows that lose
	// a race are silently omitted from the returned set rather than
	// causing the whole call to fail.
	AssignMany(ctx context.Context, recipientID string, questionIDs []int64, now time.Time) ([]int64, error)

	// CountMatching returns the number of questions matching the filters,
	// independent of any recipient's assignment state.
	CountMatching(ctx context.Context, age *int, topic string) (int, error)

	// EnsureRecipient creates the recipient record on first observation
	// and is a no-op thereafter.
	EnsureRecipient(ctx context.Context, recipientID string) error

	// Ping verifies the store responds to a trivial query, used by the
	// readiness probe.
	Ping(ctx context.Context) error

	Close() error
}
