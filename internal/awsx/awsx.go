// Package awsx classifies remote API failures and implements the retry
// policies shared by every resource client.
package awsx

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// HTTPStatus extracts the HTTP status code from a transport error, or 0.
func HTTPStatus(err error) int {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func errorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

// IsNotFound reports whether the error means the probed resource is absent.
// Callers treat that as an empty result, not a failure.
func IsNotFound(err error) bool {
	switch errorCode(err) {
	case "ResourceNotFoundException", "NotFoundException", "NoSuchEntityException":
		return true
	}
	return HTTPStatus(err) == 404
}

// IsConflict reports whether the error signals a conflicting or
// not-yet-propagated resource, such as IAM role propagation lag after a
// fresh role creation.
func IsConflict(err error) bool {
	switch errorCode(err) {
	case "ConflictException", "ResourceConflictException", "InvalidParameterValueException":
		return true
	}
	return HTTPStatus(err) == 409
}

// IsThrottle reports whether the error is a rate-limit response.
func IsThrottle(err error) bool {
	switch errorCode(err) {
	case "TooManyRequestsException", "Throttling", "ThrottlingException":
		return true
	}
	return HTTPStatus(err) == 429
}

// ConflictDeadline bounds how long conflict retries may take in total.
const ConflictDeadline = 30 * time.Second

// RetryConflict runs fn, retrying with jittered backoff for as long as it
// fails with a conflict and the deadline has not elapsed. Any other error,
// or a conflict outliving the deadline, propagates.
func RetryConflict(ctx context.Context, fn func() error) error {
	deadline := time.Now().Add(ConflictDeadline)
	delay := 500 * time.Millisecond
	for {
		err := fn()
		if err == nil || !IsConflict(err) {
			return err
		}
		if time.Now().After(deadline) {
			return err
		}
		jittered := delay/2 + time.Duration(rand.Int63n(int64(delay)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}
		if delay < 4*time.Second {
			delay *= 2
		}
	}
}

// Throttle retry policy: bounded attempts with a fixed delay.
const (
	ThrottleAttempts = 5
	ThrottleDelay    = 2 * time.Second
)

// RetryThrottle runs fn, retrying a bounded number of times with a fixed
// delay while it fails with a throttling response.
func RetryThrottle(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < ThrottleAttempts; attempt++ {
		err = fn()
		if err == nil || !IsThrottle(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ThrottleDelay):
		}
	}
	return err
}
