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

var (
	_ service.ListingStorage    = (*Storage)(nil)
	_ service.ModerationStorage = (*Storage)(nil)
)

// =========================================================================
// Public Methods
// =========================================================================

// ListMessages reads one page and the total count from the same snapshot.
// Items are ordered by time_posted, then id.
func (s *Storage) ListMessages(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result := domain.Page{Page: page, PageSize: pageSize}
	err := s.withReadOnlyTx(ctx, func(tx *sql.Tx) error {
		total, err := s.countMessages(ctx, tx, visibility)
		if err != nil {
			return err
		}
		result.PageCount = domain.PageCount(total, pageSize)
		// past the last page the offset is never computed, it may overflow
		if total == 0 || page > result.PageCount {
			return nil
		}

		result.Items, err = s.messages(ctx, tx, pageSize, domain.Offset(page, pageSize), visibility)
		return err
	})
	if err != nil {
		return domain.Page{}, err
	}
	return result, nil
}

func (s *Storage) SetVisibility(ctx context.Context, id domain.MsgId, visible bool) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.setVisibility(ctx, s.db, id, visible)
}

// DeleteMessage removes only the message. The user keeps its row and with it
// its one-shot slot.
func (s *Storage) DeleteMessage(ctx context.Context, id domain.MsgId) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.deleteMessage(ctx, s.db, id)
}

// BanAuthor deletes the author of the message. ON DELETE CASCADE removes the
// message and the avatar record. Asset files are the caller's concern.
func (s *Storage) BanAuthor(ctx context.Context, id domain.MsgId) (domain.UserId, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var userId domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		userId, err = s.banAuthor(ctx, tx, id)
		return err
	})
	return userId, err
}

// =========================================================================
// Internal Methods
// =========================================================================

func visibilityFilter(v domain.Visibility) string {
	switch v {
	case domain.VisibleOnly:
		return "WHERE m.visible"
	case domain.PendingOnly:
		return "WHERE NOT m.visible"
	default:
		return ""
	}
}

func (s *Storage) countMessages(ctx context.Context, q Querier, visibility domain.Visibility) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx, "SELECT count(*) FROM messages m "+visibilityFilter(visibility)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return total, nil
}

func (s *Storage) messages(ctx context.Context, q Querier, limit, offset int, visibility domain.Visibility) ([]domain.Message, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
        SELECT m.id, m.time_posted, m.content, m.visible, u.id, u.name, COALESCE(a.frames, '{}')
        FROM messages m
        JOIN users u ON u.id = m.author_id
        LEFT JOIN avatars a ON a.user_id = u.id
        %s
        ORDER BY m.time_posted, m.id
        LIMIT $1 OFFSET $2`, visibilityFilter(visibility)),
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var (
			msg    domain.Message
			frames pq.StringArray
		)
		if err := rows.Scan(&msg.Id, &msg.Timestamp, &msg.Content, &msg.Visible, &msg.Author.Id, &msg.Author.Name, &frames); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Timestamp = msg.Timestamp.UTC()
		msg.Author.Avatar = []domain.FrameURI(frames)
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return result, nil
}

// setVisibility touches the row even when the flag is unchanged, so approving a
// visible message affects one row and is not reported as missing.
func (s *Storage) setVisibility(ctx context.Context, q Querier, id domain.MsgId, visible bool) error {
	result, err := q.ExecContext(ctx, "UPDATE messages SET visible = $1 WHERE id = $2", visible, id)
	if err != nil {
		return fmt.Errorf("failed to update message visibility: %w", err)
	}
	return requireRows(result, "Message")
}

func (s *Storage) deleteMessage(ctx context.Context, q Querier, id domain.MsgId) error {
	result, err := q.ExecContext(ctx, "DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return requireRows(result, "Message")
}

func (s *Storage) banAuthor(ctx context.Context, q Querier, id domain.MsgId) (domain.UserId, error) {
	var userId domain.UserId
	err := q.QueryRowContext(ctx, `
        DELETE FROM users
        WHERE id = (SELECT author_id FROM messages WHERE id = $1)
        RETURNING id`,
		id,
	).Scan(&userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("Message")
		}
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return userId, nil
}

func requireRows(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return internal_errors.NotFound(what)
	}
	return nil
}
