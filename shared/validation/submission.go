// Package validation holds the business rules applied to a submission after
// its JSON shape was accepted.
package validation

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/anniv/shared/config"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/utils"
	"github.com/microcosm-cc/bluemonday"
)

type Submission struct {
	cfg    config.Submission
	policy *bluemonday.Policy
}

func NewSubmission(cfg config.Submission) *Submission {
	return &Submission{cfg: cfg, policy: bluemonday.StrictPolicy()}
}

// Email requires an address. Outside testing mode it must also be
// syntactically valid.
func (v *Submission) Email(email *string) error {
	if email == nil || strings.TrimSpace(*email) == "" {
		return ErrEmailRequired
	}
	if v.cfg.TestingMode {
		return nil
	}
	if err := utils.Validator().Var(strings.TrimSpace(*email), "required,email"); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// Name returns the trimmed display name.
func (v *Submission) Name(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > v.cfg.MaxNameLength {
		return "", internal_errors.Validation("Name is too long")
	}
	return name, nil
}

// Content strips every HTML tag and returns the trimmed plain text. Entities
// escaped by the sanitizer are decoded back, the board stores plain text.
func (v *Submission) Content(text string) (string, error) {
	text = strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(text)))
	if text == "" {
		return "", ErrContentEmpty
	}
	if utf8.RuneCountInString(text) > v.cfg.MaxContentLength {
		return "", internal_errors.Validation("Content is too long")
	}
	return text, nil
}
