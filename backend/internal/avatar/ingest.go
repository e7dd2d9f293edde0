// Package avatar fetches externally hosted avatar frames, normalizes them to
// a canonical square PNG and hands them to an asset store.
package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/logger"
	"github.com/itchan-dev/anniv/shared/middleware/metrics"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Sink is where normalized frames go.
type Sink interface {
	Save(ctx context.Context, userId domain.UserId, frame int, data []byte) (string, error)
	URL(relativePath string) string
}

type Ingester struct {
	cfg    config.Avatar
	sink   Sink
	client *http.Client
	log    *slog.Logger
}

var _ service.Ingester = (*Ingester)(nil)

func New(cfg config.Avatar, sink Sink) *Ingester {
	return &Ingester{
		cfg:    cfg,
		sink:   sink,
		client: newHTTPClient(cfg.Redirects(), cfg.AllowPrivateHosts),
		log:    logger.Named("avatar"),
	}
}

// WithClient replaces the HTTP client, keeping the redirect policy of c.
func (i *Ingester) WithClient(c *http.Client) *Ingester {
	i.client = c
	return i
}

// Ingest processes every frame concurrently. A failing frame does not cancel
// its siblings, its slot just stays empty. When all frames settled, any empty
// slot fails the whole avatar with an IngestionError naming the original URIs.
// Files already written for successful frames are left to the caller, which
// owns the user directory.
func (i *Ingester) Ingest(ctx context.Context, userId domain.UserId, uris []string) ([]domain.FrameURI, error) {
	results := make([]*domain.FrameURI, len(uris))

	var g errgroup.Group
	g.SetLimit(i.cfg.Parallelism)
	for idx, uri := range uris {
		g.Go(func() error {
			u, err := i.processFrame(ctx, userId, idx, uri)
			if err != nil {
				metrics.Frames.WithLabelValues("failed").Inc()
				i.log.Info("avatar frame failed", "user_id", userId, "frame", idx, "uri", uri, "error", err)
				return nil
			}
			metrics.Frames.WithLabelValues("ok").Inc()
			results[idx] = &u
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("avatar ingestion aborted: %w", err)
	}

	failed := lo.FilterMap(results, func(r *domain.FrameURI, idx int) (string, bool) {
		return uris[idx], r == nil
	})
	if len(failed) > 0 {
		return nil, &internal_errors.IngestionError{URIs: failed}
	}
	return lo.Map(results, func(r *domain.FrameURI, _ int) domain.FrameURI { return *r }), nil
}

func (i *Ingester) processFrame(ctx context.Context, userId domain.UserId, idx int, uri string) (domain.FrameURI, error) {
	raw, err := i.fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	normalized, err := Normalize(raw, i.cfg.Size, i.cfg.MaxDecodedBytes)
	if err != nil {
		return "", err
	}
	rel, err := i.sink.Save(ctx, userId, idx, normalized)
	if err != nil {
		return "", err
	}
	return i.sink.URL(rel), nil
}
