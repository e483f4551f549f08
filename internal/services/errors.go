package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMalformedModelResponse = errors.New("malformed model response")
	ErrIndexUnavailable       = errors.New("index unavailable")
	ErrInvalidResultCount     = errors.New("invalid result count")
	ErrRequestTimeout         = errors.New("request timeout")
	ErrEmptySkillSet          = errors.New("no skills extracted from user input")
)

// timeoutError reports a deadline overrun on ctx as ErrRequestTimeout and
// passes every other error through untouched.
func timeoutError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrRequestTimeout, err)
	}
	return err
}
