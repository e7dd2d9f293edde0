package pg

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submit runs a whole submission transaction and returns the author id.
func submit(t *testing.T, name, emailHash, content string, frames []domain.FrameURI) (domain.UserId, domain.SubmissionResult, error) {
	t.Helper()
	var (
		userId domain.UserId
		res    domain.SubmissionResult
	)
	err := storage.WithSubmissionTx(context.Background(), func(tx service.SubmissionTx) error {
		var err error
		userId, err = tx.InsertUser(context.Background(), name, []byte(emailHash))
		if err != nil {
			return err
		}
		if err := tx.InsertAvatar(context.Background(), userId, frames); err != nil {
			return err
		}
		res, err = tx.InsertMessage(context.Background(), userId, content)
		return err
	})
	return userId, res, err
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var e *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &e)
	assert.Equal(t, status, e.StatusCode)
}

func TestSubmission(t *testing.T) {
	cleanTables(t)

	userId, res, err := submit(t, "ann", "hash-ann", "hi", []domain.FrameURI{"/assets/1/0.png", "/assets/1/1.png"})
	require.NoError(t, err)
	assert.Greater(t, userId, int64(0))
	assert.Greater(t, res.Id, int64(0))
	assert.False(t, res.Timestamp.IsZero())

	page, err := storage.ListMessages(context.Background(), 1, 10, domain.AnyVisibility)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	msg := page.Items[0]
	assert.Equal(t, res.Id, msg.Id)
	assert.Equal(t, "ann", msg.Author.Name)
	assert.Equal(t, []domain.FrameURI{"/assets/1/0.png", "/assets/1/1.png"}, msg.Author.Avatar)
	assert.False(t, msg.Visible, "new messages are pending")
}

func TestSubmissionDuplicate(t *testing.T) {
	cleanTables(t)

	_, _, err := submit(t, "bob", "hash-bob", "first", []domain.FrameURI{"a"})
	require.NoError(t, err)

	t.Run("same name", func(t *testing.T) {
		_, _, err := submit(t, "bob", "hash-other", "again", []domain.FrameURI{"a"})
		requireStatus(t, err, http.StatusConflict)
	})

	t.Run("same email hash", func(t *testing.T) {
		_, _, err := submit(t, "robert", "hash-bob", "again", []domain.FrameURI{"a"})
		requireStatus(t, err, http.StatusConflict)
	})

	t.Run("second message for the same user", func(t *testing.T) {
		err := storage.WithSubmissionTx(context.Background(), func(tx service.SubmissionTx) error {
			var id domain.UserId
			if err := storage.db.QueryRow("SELECT id FROM users WHERE name = 'bob'").Scan(&id); err != nil {
				return err
			}
			_, err := tx.InsertMessage(context.Background(), id, "again")
			return err
		})
		requireStatus(t, err, http.StatusConflict)
	})

	page, err := storage.ListMessages(context.Background(), 1, 10, domain.AnyVisibility)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestSubmissionRollback(t *testing.T) {
	cleanTables(t)

	boom := errors.New("ingestion failed")
	err := storage.WithSubmissionTx(context.Background(), func(tx service.SubmissionTx) error {
		if _, err := tx.InsertUser(context.Background(), "carol", []byte("hash-carol")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// the name is free again
	_, _, err = submit(t, "carol", "hash-carol", "hi", []domain.FrameURI{"a"})
	assert.NoError(t, err)
}

func TestSubmissionConcurrent(t *testing.T) {
	cleanTables(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := submit(t, "dave", "hash-dave", "hi", []domain.FrameURI{"a"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			var e *internal_errors.ErrorWithStatusCode
			if errors.As(err, &e) && e.StatusCode == http.StatusConflict {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, attempts-1, conflicts)
}
