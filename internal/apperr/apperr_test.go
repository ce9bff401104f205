package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Permission("nope"), http.StatusForbidden},
		{Unauthorized("who"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("ctx: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := Conflict("already exists")
	cause := errors.New("UNIQUE constraint failed")

	err := sentinel.Wrap(cause)

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "already exists: UNIQUE constraint failed", err.Error())
}

func TestWithFieldCopies(t *testing.T) {
	base := Validation("invalid payload")
	withField := base.WithField("cooking_time", "must be at least 1")

	assert.Empty(t, base.Fields)
	assert.Equal(t, "must be at least 1", withField.Fields["cooking_time"])
}
