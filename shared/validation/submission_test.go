package validation

import (
	"net/http"
	"strings"
	"testing"

	"github.com/itchan-dev/anniv/shared/config"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func newValidator(testing bool) *Submission {
	return NewSubmission(config.Submission{MaxNameLength: 5, MaxContentLength: 10, TestingMode: testing})
}

func TestEmail(t *testing.T) {
	v := newValidator(false)

	assert.ErrorIs(t, v.Email(nil), ErrEmailRequired)
	assert.ErrorIs(t, v.Email(ptr("  ")), ErrEmailRequired)
	assert.ErrorIs(t, v.Email(ptr("not-an-email")), ErrEmailInvalid)
	assert.NoError(t, v.Email(ptr("ann@x.com")))

	t.Run("testing mode accepts anything non-empty", func(t *testing.T) {
		v := newValidator(true)
		assert.NoError(t, v.Email(ptr("not-an-email")))
		assert.ErrorIs(t, v.Email(nil), ErrEmailRequired)
	})

	var e *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, v.Email(nil), &e)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
}

func TestName(t *testing.T) {
	v := newValidator(false)

	name, err := v.Name("  ann ")
	require.NoError(t, err)
	assert.Equal(t, "ann", name)

	_, err = v.Name("   ")
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = v.Name("annabel")
	assert.Error(t, err)

	// runes, not bytes
	_, err = v.Name("аня")
	assert.NoError(t, err)
}

func TestContent(t *testing.T) {
	v := newValidator(false)

	text, err := v.Content(" <b>hi</b> & bye ")
	require.NoError(t, err)
	assert.Equal(t, "hi & bye", text)

	_, err = v.Content("<script></script>")
	assert.ErrorIs(t, err, ErrContentEmpty)

	_, err = v.Content(strings.Repeat("x", 11))
	assert.Error(t, err)
}
