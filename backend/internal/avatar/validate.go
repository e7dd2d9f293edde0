package avatar

import (
	"net/url"
	"path"
	"strings"

	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/samber/lo"
)

// Validate checks the frame list without touching the network. Every URI
// that fails the scheme or extension rule is named in the error.
func (i *Ingester) Validate(uris []string) error {
	if len(uris) == 0 {
		return internal_errors.Validation("Avatar must have at least one frame")
	}
	if len(uris) > i.cfg.MaxFrames {
		return internal_errors.Validation("Avatar has %d frames, at most %d allowed", len(uris), i.cfg.MaxFrames)
	}

	invalid := lo.Reject(uris, func(uri string, _ int) bool {
		return i.validURI(uri)
	})
	if len(invalid) > 0 {
		return internal_errors.Validation("Invalid avatar URIs: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (i *Ingester) validURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if !lo.Contains(i.cfg.AllowedSchemes, strings.ToLower(u.Scheme)) {
		return false
	}
	return lo.Contains(i.cfg.AllowedExtensions, strings.ToLower(path.Ext(u.Path)))
}
