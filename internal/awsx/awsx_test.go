package awsx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "remote says no"}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
		conflict bool
		throttle bool
	}{
		{"resource not found", apiError("ResourceNotFoundException"), true, false, false},
		{"not found", apiError("NotFoundException"), true, false, false},
		{"no such entity", apiError("NoSuchEntityException"), true, false, false},
		{"conflict", apiError("ConflictException"), false, true, false},
		{"resource conflict", apiError("ResourceConflictException"), false, true, false},
		{"role propagation lag", apiError("InvalidParameterValueException"), false, true, false},
		{"too many requests", apiError("TooManyRequestsException"), false, false, true},
		{"throttling", apiError("ThrottlingException"), false, false, true},
		{"unrelated api error", apiError("AccessDeniedException"), false, false, false},
		{"plain error", errors.New("boom"), false, false, false},
		{"wrapped", fmt.Errorf("call failed: %w", apiError("NotFoundException")), true, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.throttle, IsThrottle(tt.err))
		})
	}
}

func TestRetryConflictPassesThroughOtherErrors(t *testing.T) {
	calls := 0
	err := RetryConflict(context.Background(), func() error {
		calls++
		return errors.New("terminal")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryConflictRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := RetryConflict(context.Background(), func() error {
		calls++
		if calls < 2 {
			return apiError("ConflictException")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryConflictHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryConflict(ctx, func() error {
		return apiError("ConflictException")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryThrottleStopsOnSuccess(t *testing.T) {
	calls := 0
	err := RetryThrottle(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryThrottlePassesThroughOtherErrors(t *testing.T) {
	calls := 0
	err := RetryThrottle(context.Background(), func() error {
		calls++
		return apiError("AccessDeniedException")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
