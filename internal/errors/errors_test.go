package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"soilval/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestShapeMismatchMatchesSentinel(t *testing.T) {
	err := Wrap(ShapeMismatch("reference is 3x4, satellite is 3x5"), "compute metrics")

	assert.True(t, stderrors.Is(err, core.ErrShapeMismatch))
	assert.Equal(t, CodeShapeMismatch, GetCode(err))
	assert.Contains(t, err.Error(), "compute metrics")
}

func TestWrapPlainError(t *testing.T) {
	base := fmt.Errorf("disk full")
	err := Wrapf(base, "write %s", "out.xlsx")

	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.ErrorIs(t, err, base)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestGetCodeUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.Equal(t, CodeIOError, GetCode(IOError("in.csv", fmt.Errorf("missing"))))
}
