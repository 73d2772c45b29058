package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type upstreamErr struct{ status int }

func (e upstreamErr) Error() string   { return fmt.Sprintf("upstream %d", e.status) }
func (e upstreamErr) HTTPStatus() int { return e.status }

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"auth", Authentication("nope"), http.StatusUnauthorized},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"conflict", Conflict("dup", errors.New("unique")), http.StatusConflict},
		{"duplicate item", DuplicateItem("dup"), http.StatusConflict},
		{"processing", Processing("failed", errors.New("boom")), http.StatusInternalServerError},
		{"processing over validation cause", Processing("failed", Validation("bad id")), http.StatusInternalServerError},
		{"processing over conflict cause", Processing("failed", Conflict("dup", nil)), http.StatusInternalServerError},
		{"processing over upstream cause", Processing("failed", upstreamErr{status: 404}), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("inner")), http.StatusNotFound},
		{"upstream passthrough", upstreamErr{status: 429}, http.StatusTooManyRequests},
		{"upstream odd status", upstreamErr{status: 302}, http.StatusBadGateway},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Processing("handler failed", cause)

	assert.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "handler failed: root cause", err.Error())
	assert.Equal(t, "processing_error", Code(err))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "duplicate_item", Code(DuplicateItem("dup")))
	assert.Equal(t, "provider_error", Code(upstreamErr{status: 500}))
	assert.Equal(t, "internal_server_error", Code(errors.New("x")))
	assert.Equal(t, "processing_error", Code(Processing("failed", NotFound("gone"))))
}
