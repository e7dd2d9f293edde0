package service

import (
	"context"
	"sync"

	"github.com/itchan-dev/anniv/shared/domain"
)

type MockSubmissionTx struct {
	InsertUserFunc    func(ctx context.Context, name domain.UserName, emailHash domain.EmailHash) (domain.UserId, error)
	InsertAvatarFunc  func(ctx context.Context, userId domain.UserId, frames []domain.FrameURI) error
	InsertMessageFunc func(ctx context.Context, userId domain.UserId, content domain.MsgText) (domain.SubmissionResult, error)
}

func (m *MockSubmissionTx) InsertUser(ctx context.Context, name domain.UserName, emailHash domain.EmailHash) (domain.UserId, error) {
	if m.InsertUserFunc != nil {
		return m.InsertUserFunc(ctx, name, emailHash)
	}
	return 1, nil
}

func (m *MockSubmissionTx) InsertAvatar(ctx context.Context, userId domain.UserId, frames []domain.FrameURI) error {
	if m.InsertAvatarFunc != nil {
		return m.InsertAvatarFunc(ctx, userId, frames)
	}
	return nil
}

func (m *MockSubmissionTx) InsertMessage(ctx context.Context, userId domain.UserId, content domain.MsgText) (domain.SubmissionResult, error) {
	if m.InsertMessageFunc != nil {
		return m.InsertMessageFunc(ctx, userId, content)
	}
	return domain.SubmissionResult{Id: 1}, nil
}

// MockSubmissionStorage runs fn against Tx and records whether the
// transaction would have committed.
type MockSubmissionStorage struct {
	Tx         *MockSubmissionTx
	CommitErr  error
	Committed  bool
	RolledBack bool
}

func (m *MockSubmissionStorage) WithSubmissionTx(ctx context.Context, fn func(tx SubmissionTx) error) error {
	if err := fn(m.Tx); err != nil {
		m.RolledBack = true
		return err
	}
	if m.CommitErr != nil {
		m.RolledBack = true
		return m.CommitErr
	}
	m.Committed = true
	return nil
}

type MockAssetStore struct {
	mu             sync.Mutex
	PrepareFunc    func(ctx context.Context, userId domain.UserId) error
	RemoveUserFunc func(ctx context.Context, userId domain.UserId) error
	Prepared       []domain.UserId
	Removed        []domain.UserId
}

func (m *MockAssetStore) Prepare(ctx context.Context, userId domain.UserId) error {
	m.mu.Lock()
	m.Prepared = append(m.Prepared, userId)
	m.mu.Unlock()
	if m.PrepareFunc != nil {
		return m.PrepareFunc(ctx, userId)
	}
	return nil
}

func (m *MockAssetStore) Save(ctx context.Context, userId domain.UserId, frame int, data []byte) (string, error) {
	return domain.FrameName(frame), nil
}

func (m *MockAssetStore) RemoveUser(ctx context.Context, userId domain.UserId) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, userId)
	m.mu.Unlock()
	if m.RemoveUserFunc != nil {
		return m.RemoveUserFunc(ctx, userId)
	}
	return nil
}

func (m *MockAssetStore) URL(relativePath string) string {
	return "/assets/" + relativePath
}

type MockIngester struct {
	ValidateFunc func(uris []string) error
	IngestFunc   func(ctx context.Context, userId domain.UserId, uris []string) ([]domain.FrameURI, error)
}

func (m *MockIngester) Validate(uris []string) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(uris)
	}
	return nil
}

func (m *MockIngester) Ingest(ctx context.Context, userId domain.UserId, uris []string) ([]domain.FrameURI, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, userId, uris)
	}
	return uris, nil
}

type MockValidator struct {
	EmailFunc func(email *string) error
}

func (m *MockValidator) Email(email *string) error {
	if m.EmailFunc != nil {
		return m.EmailFunc(email)
	}
	return nil
}

func (m *MockValidator) Name(name string) (string, error)    { return name, nil }
func (m *MockValidator) Content(text string) (string, error) { return text, nil }

type MockHasher struct{}

func (m *MockHasher) Hash(email string) ([]byte, error) { return []byte("h:" + email), nil }

type MockListingStorage struct {
	ListMessagesFunc func(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error)
}

func (m *MockListingStorage) ListMessages(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, page, pageSize, visibility)
	}
	return domain.Page{Page: page, PageSize: pageSize}, nil
}

type MockModerationStorage struct {
	SetVisibilityFunc func(ctx context.Context, id domain.MsgId, visible bool) error
	DeleteMessageFunc func(ctx context.Context, id domain.MsgId) error
	BanAuthorFunc     func(ctx context.Context, id domain.MsgId) (domain.UserId, error)
}

func (m *MockModerationStorage) SetVisibility(ctx context.Context, id domain.MsgId, visible bool) error {
	if m.SetVisibilityFunc != nil {
		return m.SetVisibilityFunc(ctx, id, visible)
	}
	return nil
}

func (m *MockModerationStorage) DeleteMessage(ctx context.Context, id domain.MsgId) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, id)
	}
	return nil
}

func (m *MockModerationStorage) BanAuthor(ctx context.Context, id domain.MsgId) (domain.UserId, error) {
	if m.BanAuthorFunc != nil {
		return m.BanAuthorFunc(ctx, id)
	}
	return 1, nil
}
