package service

import (
	"context"

	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
)

type ListingService interface {
	List(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error)
}

type Listing struct {
	storage ListingStorage
	cfg     config.Listing
}

func NewListing(storage ListingStorage, cfg config.Listing) ListingService {
	return &Listing{storage: storage, cfg: cfg}
}

// List returns one page. pageSize above the configured maximum is clamped.
// An empty page is a PageNotFound that still carries the real page count.
func (l *Listing) List(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, internal_errors.Validation("page must be a positive integer")
	}
	if pageSize < 1 {
		return domain.Page{}, internal_errors.Validation("pageSize must be a positive integer")
	}
	pageSize = min(pageSize, l.cfg.MaxPageSize)

	result, err := l.storage.ListMessages(ctx, page, pageSize, visibility)
	if err != nil {
		return domain.Page{}, err
	}
	if len(result.Items) == 0 {
		return domain.Page{}, &internal_errors.PageNotFound{PageCount: result.PageCount}
	}
	return result, nil
}
