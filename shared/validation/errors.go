package validation

import internal_errors "github.com/itchan-dev/anniv/shared/errors"

var (
	ErrEmailRequired = internal_errors.Validation("Email is required")
	ErrEmailInvalid  = internal_errors.Validation("Email is invalid")
	ErrNameEmpty     = internal_errors.Validation("Name is too short")
	ErrContentEmpty  = internal_errors.Validation("Content is too short")
)
