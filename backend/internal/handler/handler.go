package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/config"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/utils"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	submission service.SubmissionService
	listing    service.ListingService
	moderation service.ModerationService
	health     HealthChecker
	cfg        *config.Config
}

func New(
	submission service.SubmissionService,
	listing service.ListingService,
	moderation service.ModerationService,
	health HealthChecker,
	cfg *config.Config,
) *Handler {
	return &Handler{
		submission: submission,
		listing:    listing,
		moderation: moderation,
		health:     health,
		cfg:        cfg,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	utils.WriteErrorAndStatusCode(w, err, h.cfg.DevMode())
}

// decode reads and validates a JSON body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return utils.DecodeValidate(r.Body, v)
}

// pagination reads page and pageSize from the query, falling back to 1 and
// the configured default page size.
func (h *Handler) pagination(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()
	page, err = positiveInt(q.Get("page"), 1, "page")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err = positiveInt(q.Get("pageSize"), h.cfg.Public.Listing.DefaultPageSize, "pageSize")
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func positiveInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, internal_errors.Validation("%s must be a positive integer", name)
	}
	return n, nil
}
