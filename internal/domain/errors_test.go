package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "application error", err: NotFound("op", "product", "1"), want: ENOTFOUND},
		{name: "wrapped application error", err: fmt.Errorf("ctx: %w", Forbidden("op", "no")), want: EFORBIDDEN},
		{name: "validation error", err: NewValidationError("op", "sku", "required"), want: EINVALID},
		{name: "remote 422", err: &RemoteError{StatusCode: 422}, want: EINVALID},
		{name: "remote 401", err: &RemoteError{StatusCode: 401}, want: EUNAUTHORIZED},
		{name: "remote 404", err: &RemoteError{StatusCode: 404}, want: ENOTFOUND},
		{name: "remote 409", err: &RemoteError{StatusCode: 409}, want: ECONFLICT},
		{name: "remote 503", err: &RemoteError{StatusCode: 503}, want: EUNAVAILABLE},
		{name: "remote 200 with success false", err: &RemoteError{StatusCode: 200}, want: EINVALID},
		{name: "plain error", err: errors.New("boom"), want: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "SKU is required", ErrorMessage(Invalid("op", "SKU is required")))
	assert.Equal(t, "An internal error occurred. Please try again later.",
		ErrorMessage(Internal(errors.New("db password leaked"), "op", "query failed")))
	assert.Equal(t, "SKU taken", ErrorMessage(&RemoteError{StatusCode: 409, Messages: []string{"SKU taken", "other"}}))
	assert.Equal(t, "The catalog service could not complete the request.", ErrorMessage(&RemoteError{StatusCode: 500}))
}

func TestErrorMessages(t *testing.T) {
	err := multierr.Combine(
		&RemoteError{Op: "catalog.list", StatusCode: 502, Messages: []string{"first", "second"}},
		Unavailable(errors.New("dial"), "company.list", "Companies could not be loaded."),
	)

	assert.Equal(t, []string{"first", "second", "Companies could not be loaded."}, ErrorMessages(err))
	assert.Nil(t, ErrorMessages(nil))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Unavailable(cause, "catalog.list", "unreachable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "catalog.list: unreachable", err.Error())
	assert.Equal(t, "catalog.list", ErrorOp(err))
}

func TestRemoteError_Error(t *testing.T) {
	assert.Equal(t, "catalog.list: nope", (&RemoteError{Op: "catalog.list", Messages: []string{"nope"}}).Error())
	assert.Equal(t, "catalog.list: catalog API returned status 500", (&RemoteError{Op: "catalog.list", StatusCode: 500}).Error())
}

func TestAddFieldError(t *testing.T) {
	ve := NewValidationError("op", "sku", "required")

	got := AddFieldError(ve, "title", "too long")
	assert.Same(t, ve, got)
	assert.Equal(t, map[string]string{"sku": "required", "title": "too long"}, got.Fields)

	fresh := AddFieldError(errors.New("x"), "sku", "required")
	assert.Equal(t, map[string]string{"sku": "required"}, fresh.Fields)
}
