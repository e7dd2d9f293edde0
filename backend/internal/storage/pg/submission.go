package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/lib/pq"
)

var _ service.SubmissionStorage = (*Storage)(nil)

// submissionTx binds the submission inserts to one open transaction.
type submissionTx struct {
	q Querier
}

// WithSubmissionTx is the public entry point for the user+avatar+message insert.
// The caller's context bounds the whole transaction, including any work fn does
// between inserts.
func (s *Storage) WithSubmissionTx(ctx context.Context, fn func(tx service.SubmissionTx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&submissionTx{q: tx})
	})
}

// InsertUser relies on the unique name and email_hash constraints. A second
// attempt with either value taken inserts nothing and reports a conflict. A
// concurrent attempt blocks on the unique index until the first transaction
// finishes, so exactly one of them wins.
func (t *submissionTx) InsertUser(ctx context.Context, name domain.UserName, emailHash domain.EmailHash) (domain.UserId, error) {
	var id domain.UserId
	err := t.q.QueryRowContext(ctx, `
        INSERT INTO users(name, email_hash) VALUES ($1, $2)
        ON CONFLICT DO NOTHING
        RETURNING id`,
		name, emailHash,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.Conflict()
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (t *submissionTx) InsertAvatar(ctx context.Context, userId domain.UserId, frames []domain.FrameURI) error {
	_, err := t.q.ExecContext(ctx, "INSERT INTO avatars(user_id, frames) VALUES ($1, $2)", userId, pq.Array(frames))
	if err != nil {
		return fmt.Errorf("failed to insert avatar: %w", err)
	}
	return nil
}

// InsertMessage stores the single message of a user. time_posted comes from
// clock_timestamp() so ordering never depends on the client.
func (t *submissionTx) InsertMessage(ctx context.Context, userId domain.UserId, content domain.MsgText) (domain.SubmissionResult, error) {
	var res domain.SubmissionResult
	err := t.q.QueryRowContext(ctx, `
        INSERT INTO messages(author_id, content) VALUES ($1, $2)
        ON CONFLICT (author_id) DO NOTHING
        RETURNING id, time_posted`,
		userId, content,
	).Scan(&res.Id, &res.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SubmissionResult{}, internal_errors.Conflict()
		}
		return domain.SubmissionResult{}, fmt.Errorf("failed to insert message: %w", err)
	}
	res.Timestamp = res.Timestamp.UTC()
	return res, nil
}
