package repositories

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across repositories and the layers above them.
// Not-found errors are terminal for the caller; ErrStoreUnavailable is
// transient and safe to retry with backoff.
var (
	ErrConfessionNotFound = errors.New("confession not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrParentNotFound     = errors.New("parent comment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// storeErr wraps a driver error as ErrStoreUnavailable so callers can
// classify it with errors.Is without depending on the driver.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
