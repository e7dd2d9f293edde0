package service

import (
	"context"
	"time"

	"github.com/itchan-dev/anniv/shared/domain"
)

// SubmissionTx is the transactional half of a submission. Every method runs
// inside the same database transaction.
type SubmissionTx interface {
	// InsertUser returns a conflict error when the name or email hash is taken.
	InsertUser(ctx context.Context, name domain.UserName, emailHash domain.EmailHash) (domain.UserId, error)
	InsertAvatar(ctx context.Context, userId domain.UserId, frames []domain.FrameURI) error
	// InsertMessage returns a conflict error when the user already has a message.
	InsertMessage(ctx context.Context, userId domain.UserId, content domain.MsgText) (domain.SubmissionResult, error)
}

type SubmissionStorage interface {
	// WithSubmissionTx commits when fn returns nil and rolls back otherwise.
	WithSubmissionTx(ctx context.Context, fn func(tx SubmissionTx) error) error
}

type ListingStorage interface {
	ListMessages(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error)
}

type ModerationStorage interface {
	SetVisibility(ctx context.Context, id domain.MsgId, visible bool) error
	DeleteMessage(ctx context.Context, id domain.MsgId) error
	// BanAuthor deletes the author of a message and returns its id.
	BanAuthor(ctx context.Context, id domain.MsgId) (domain.UserId, error)
}

// AssetStore persists normalized avatar frames, one directory (or key prefix)
// per user id.
type AssetStore interface {
	Prepare(ctx context.Context, userId domain.UserId) error
	Save(ctx context.Context, userId domain.UserId, frame int, data []byte) (string, error)
	RemoveUser(ctx context.Context, userId domain.UserId) error
	URL(relativePath string) string
}

// AssetDir is one user directory found in the asset store.
type AssetDir struct {
	UserId  domain.UserId
	ModTime time.Time
}

type GCStorage interface {
	UserIDs(ctx context.Context) ([]domain.UserId, error)
}

type GCAssetStore interface {
	WalkUsers(ctx context.Context) ([]AssetDir, error)
	RemoveUser(ctx context.Context, userId domain.UserId) error
}

// Ingester turns avatar frame URIs into stored canonical frames.
type Ingester interface {
	// Validate checks URIs structurally without any network activity.
	Validate(uris []string) error
	Ingest(ctx context.Context, userId domain.UserId, uris []string) ([]domain.FrameURI, error)
}
