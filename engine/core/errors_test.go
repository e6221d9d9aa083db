package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKind(t *testing.T) {
	cause := errors.New("VK_ERROR_DEVICE_LOST")
	err := NewError(ErrSubmission, "QueueSubmit", cause)

	assert.ErrorIs(t, err, ErrSubmission)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrSetup)
	assert.Equal(t, "QueueSubmit: gpu submission failure: VK_ERROR_DEVICE_LOST", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("draw frame: %w", Errorf(ErrSyncTimeout, "WaitForFences", "slot %d", 1))

	var rerr *Error
	assert.True(t, errors.As(err, &rerr))
	assert.Equal(t, "WaitForFences", rerr.Op)
	assert.ErrorIs(t, err, ErrSyncTimeout)
}

func TestErrorWithoutCause(t *testing.T) {
	err := NewError(ErrLookupMiss, "GetMesh(triangle)", nil)
	assert.Equal(t, "GetMesh(triangle): resource not registered", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(NewError(ErrSwapchainOutOfDate, "AcquireNextImage", nil)))
	assert.True(t, IsFatal(NewError(ErrSubmission, "QueuePresent", nil)))
	assert.True(t, IsFatal(errors.New("anything else")))
}
