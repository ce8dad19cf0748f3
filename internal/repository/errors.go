// Package repository defines error types that are reused across
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrAlreadyRegistered indicates that a user attempted to
// join a wait queue they are already in; handlers recover from it by
// falling back to a plain rank lookup instead of failing the request.
package repository

import "errors"

// ErrAlreadyRegistered is returned when a user is inserted into a wait
// queue that already contains them. The original arrival score is left
// untouched so the user keeps their place in line. Handlers should
// translate this into an HTTP 409 response, or recover silently when
// re-registration is an expected part of the flow (repeat polls of the
// waiting page).
var ErrAlreadyRegistered = errors.New("already registered in queue")
