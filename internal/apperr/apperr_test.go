package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("catalog.get", "entry 5 not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "entry 5 not found", Message(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("502 bad gateway")
	err := Wrap(KindUpload, "imagehost.upload", "image host unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, "imagehost.upload: upload: image host unavailable: 502 bad gateway", err.Error())
	assert.Equal(t, "upload", err.Code())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Empty(t, KindOf(errors.New("x")))
	assert.Empty(t, Message(nil))
}
