package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_MessageAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrProvider("failed to create bucket", cause)

	assert.Equal(t, "failed to create bucket: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAppError_MessageWithoutCause(t *testing.T) {
	err := ErrInvalidInput("unrecognized deployment mode", nil)
	assert.Equal(t, "unrecognized deployment mode", err.Error())
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "missing prerequisite", err: ErrMissingPrerequisite("no project", nil), want: 1},
		{name: "invalid input", err: ErrInvalidInput("bad mode", nil), want: 1},
		{name: "provider failure", err: ErrProvider("api error", errors.New("boom")), want: 1},
		{name: "declined", err: ErrDeclined("deployment cancelled"), want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "wrapped app error", err: fmt.Errorf("run: %w", ErrDeclined("cancelled")), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsDeclined(t *testing.T) {
	assert.True(t, IsDeclined(ErrDeclined("cancelled")))
	assert.True(t, IsDeclined(fmt.Errorf("run: %w", ErrDeclined("cancelled"))))
	assert.False(t, IsDeclined(ErrInvalidInput("bad", nil)))
	assert.False(t, IsDeclined(errors.New("boom")))
	assert.False(t, IsDeclined(nil))
}

func TestGetErrorMessage(t *testing.T) {
	appErr := ErrProvider("failed to enable API", errors.New("403"))
	assert.Equal(t, "failed to enable API", GetErrorMessage(appErr))
	assert.Equal(t, "boom", GetErrorMessage(errors.New("boom")))
}

func TestErrorCodes(t *testing.T) {
	var appErr *AppError

	require.ErrorAs(t, ErrMissingPrerequisite("m", nil), &appErr)
	assert.Equal(t, ErrCodeMissingPrerequisite, appErr.Code)

	require.ErrorAs(t, ErrProvider("m", nil), &appErr)
	assert.Equal(t, ErrCodeProviderFailure, appErr.Code)
}
